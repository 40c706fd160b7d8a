package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
)

// TimerListener resolves phases when their deadline passes. Redis keyspace
// notifications on expired timer keys give prompt wakeups; a polling sweeper
// over the store catches deadlines whether Redis is around or not. Lazy
// advancement on reads covers the rest, so ResolvePhase must stay
// idempotent.
type TimerListener struct {
	rdb      *redis.Client // nil without Redis; only the sweeper runs
	phaseSvc *PhaseService
	gameRepo repository.GameRepository
	sweep    time.Duration
}

// NewTimerListener creates a TimerListener. rdb may be nil.
func NewTimerListener(rdb *redis.Client, phaseSvc *PhaseService, gameRepo repository.GameRepository, sweep time.Duration) *TimerListener {
	if sweep <= 0 {
		sweep = 10 * time.Second
	}
	return &TimerListener{rdb: rdb, phaseSvc: phaseSvc, gameRepo: gameRepo, sweep: sweep}
}

// Start begins listening for expired key events and runs the sweeper.
// Blocks until ctx is canceled.
func (t *TimerListener) Start(ctx context.Context) {
	if t.rdb != nil {
		go t.listenKeyspace(ctx)
	}
	t.sweepExpiredGames(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// sweepExpiredGames periodically resolves games past their phase deadline.
func (t *TimerListener) sweepExpiredGames(ctx context.Context) {
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()

	log.Info().Dur("interval", t.sweep).Msg("Phase deadline sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Phase deadline sweeper stopped")
			return
		case <-ticker.C:
			t.checkExpiredGames(ctx)
		}
	}
}

// checkExpiredGames finds running games past their deadline and resolves them.
func (t *TimerListener) checkExpiredGames(ctx context.Context) {
	games, err := t.gameRepo.ListExpired(ctx, unix(time.Now()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired games")
		return
	}
	if len(games) > 0 {
		log.Info().Int("count", len(games)).Msg("Sweeper found expired phases")
	}
	for _, g := range games {
		log.Info().Str("gameId", g.ID).Str("state", string(g.State)).
			Int("turn", g.TurnNumber).Msg("Sweeper resolving expired phase")
		if err := t.phaseSvc.ResolvePhase(ctx, g.ID); err != nil {
			log.Error().Err(err).Str("gameId", g.ID).Msg("Phase resolution failed from sweeper")
		}
	}
}

// handleExpiry processes an expired key. Only acts on game timer keys.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "game:") || !strings.HasSuffix(key, ":timer") {
		return
	}

	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return
	}
	gameID := parts[1]

	log.Info().Str("gameId", gameID).Msg("Timer expired, triggering phase resolution")
	if err := t.phaseSvc.ResolvePhase(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Phase resolution failed after timer expiry")
	}
}
