package redis

import (
	"context"
	"time"
)

func timerKey(gameID string) string { return "game:" + gameID + ":timer" }

// phaseGracePeriod is the extra time after the displayed deadline before
// phase resolution triggers, giving clients a few seconds of leeway.
const phaseGracePeriod = 5 * time.Second

// SetTimer creates a timer key that lives as long as the current phase.
// When the key expires, Redis keyspace notifications wake the phase
// listener; the lazy check on reads and the sweeper cover the case where
// the notification is lost.
func (c *Client) SetTimer(ctx context.Context, gameID string, seconds int) error {
	ttl := time.Duration(seconds)*time.Second + phaseGracePeriod
	return c.rdb.Set(ctx, timerKey(gameID), time.Now().Unix()+int64(seconds), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}
