// Package main is the entry point for the Snake game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot"
	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/cache"
	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/storage"
	"github.com/MRamiBalles/SnakeWeb/server/internal/network"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/config"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	appLogger := logger.NewLogger()

	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(2)
	}
	appLogger.SetDebug(cfg.Debug)
	appLogger.Infof("[SNAKE-SERVER] Starting with profile %q on %s", cfg.Profile, cfg.ListenAddr)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server failed: " + err.Error())
		os.Exit(1)
	}
	appLogger.Info("[SNAKE-SERVER] Bye.")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.Get()

	// Storage: SQLite when configured, memory otherwise.
	var (
		db         *sql.DB
		eventRepo  storage.EventRepository
		scoreRepo  storage.ScoreRepository = storage.NewMemoryScoreRepository()
		persister  events.EventPersister
		scoreStore engine.ScoreStore
		gameStore  engine.GameStore
	)
	if cfg.DBPath != "" {
		appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
		var err error
		db, err = storage.InitSQLite(cfg.DBPath, storage.PoolOptions{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		sqliteEvents := storage.NewSQLiteEventRepository(db)
		eventRepo = sqliteEvents
		scoreRepo = storage.NewSQLiteScoreRepository(db)
		persister = storage.NewEventWriter(sqliteEvents)
		gameStore = storage.NewGameWriter(storage.NewSQLiteGameRepository(db))
	} else {
		appLogger.Warn("No database configured; scores live in memory only.")
	}
	scoreStore = storage.NewScoreWriter(scoreRepo)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(persister)
	eventLog.SetRetention(cfg.EventRetention)
	eventLog.OnPersist(m.RecordEventWrite)

	appLogger.Info("Bootstrapping Engine...")
	gameEngine := engine.NewEngine(eventLog, appLogger, m, engine.Options{
		BoardSize:    cfg.BoardSize,
		MoveInterval: cfg.MoveInterval,
		InitialFood:  cfg.InitialFood,
		MaxGames:     cfg.MaxGames,
		IdleTTL:      cfg.SessionIdleTTL,
		ReapInterval: cfg.ReapInterval,
	}).WithStores(scoreStore, gameStore)

	leaderboard := cache.NewLeaderboard(cfg.LeaderboardCacheSize, cache.DefaultTTL, scoreRepo.Top)
	gameEngine.OnScoreSaved(func(engine.ScoreEntry) { leaderboard.Invalidate() })

	appLogger.Info("Bootstrapping Autopilot...")
	mind := autopilot.NewMind(gameEngine, appLogger, m)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, appLogger, m, network.HubOptions{
		SendBuffer:           cfg.ClientSendBuffer,
		MaxClientsPerGame:    cfg.MaxClientsPerGame,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
		AllowedOrigins:       cfg.AllowedOrigins,
	})

	api := network.NewAPI(gameEngine, hub, leaderboard, network.NewReplayHandler(eventLog, eventRepo, appLogger).WithScores(scoreRepo), m, appLogger)
	api.SetLeaderboardSize(cfg.LeaderboardSize)
	api.SetConfig(cfg)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           network.NewRouter(api, appLogger, cfg.Debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return gameEngine.Run(ctx) })
	g.Go(func() error { return mind.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error {
		appLogger.Info("[SNAKE-SERVER] HTTP API & WS Server listening on " + cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("[SNAKE-SERVER] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	// Let the last events reach SQLite before db.Close runs.
	eventLog.Flush()
	return err
}
