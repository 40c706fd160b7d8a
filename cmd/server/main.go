package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/itisgrassi/lupus-in-tabula/api/internal/auth"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/config"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/handler"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/logger"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/middleware"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository"
	redisrepo "github.com/itisgrassi/lupus-in-tabula/api/internal/repository/redis"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/repository/sqlstore"
	"github.com/itisgrassi/lupus-in-tabula/api/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Config loaded")

	// Database: Postgres when DATABASE_URL is set, SQLite otherwise.
	store, err := sqlstore.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer store.Close()

	// Redis is optional. Without it the lazy advance on reads and the
	// sweeper still resolve phase deadlines, just without the expiry push.
	var timers repository.TimerCache
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()

		// Keyspace notifications wake the timer listener on expiry.
		if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (falling back to sweeper)")
		}
		timers = redisClient
		rdb = redisClient.Underlying()
	}

	// Repos
	userRepo := sqlstore.NewUserRepo(store)
	sessionRepo := sqlstore.NewSessionRepo(store)
	gameRepo := sqlstore.NewGameRepo(store)
	playerRepo := sqlstore.NewPlayerRepo(store)
	actionRepo := sqlstore.NewActionRepo(store)

	// Services
	phaseSvc := service.NewPhaseService(gameRepo, playerRepo, userRepo, actionRepo, timers)
	gameSvc := service.NewGameService(gameRepo, playerRepo, userRepo, actionRepo, phaseSvc)
	actionSvc := service.NewActionService(gameRepo, playerRepo, actionRepo, phaseSvc)
	authSvc := service.NewAuthService(userRepo, sessionRepo, gameRepo)

	// Timer listener (resolve phases on deadline expiry)
	timerListener := service.NewTimerListener(rdb, phaseSvc, gameRepo, cfg.SweepInterval)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, cfg.Production())
	gameHandler := handler.NewGameHandler(gameSvc, store)
	actionHandler := handler.NewActionHandler(actionSvc)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("POST /reset", gameHandler.Reset)

	// Session-protected
	api := http.NewServeMux()
	api.HandleFunc("GET /me", authHandler.Me)
	api.HandleFunc("POST /create_game", gameHandler.Create)
	api.HandleFunc("POST /join_game/{code}", gameHandler.Join)
	api.HandleFunc("GET /games", gameHandler.List)
	api.HandleFunc("GET /game_state/{code}", gameHandler.State)
	api.HandleFunc("POST /action/{code}", actionHandler.Action)
	api.HandleFunc("POST /vote/{code}", actionHandler.Vote)
	api.HandleFunc("POST /guess/{code}", actionHandler.Guess)
	api.HandleFunc("GET /history", gameHandler.History)
	api.HandleFunc("GET /history/{code}", gameHandler.HistoryDetail)
	mux.Handle("/", auth.Middleware(sessionRepo, userRepo)(api))

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.CORSOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Re-arm or resolve deadlines for games that were mid-phase at the
	// last shutdown.
	if err := phaseSvc.RecoverDeadlines(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover phase deadlines (non-fatal)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
