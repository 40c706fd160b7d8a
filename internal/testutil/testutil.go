// Package testutil provides shared helpers for tests that need a real
// database behind the repositories.
package testutil

import (
	"testing"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository/sqlstore"
)

// NewStore opens an in-memory SQLite store named after the test, so
// concurrent tests never share tables. The schema is created by Connect
// and the store is closed on cleanup.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, err := sqlstore.Connect("", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
