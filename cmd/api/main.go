package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/config"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/workers"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/logger"
)

// @title                      HabitFlow Sync Engine API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Critical: invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.Debug)
	if err != nil {
		log.Fatalf("Critical: cannot build logger: %v", err)
	}
	defer func() { _ = logger.Sync(zlog) }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("startup failed", zap.Error(err))
	}
	defer a.close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zlog.Info("HabitFlow sync engine listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}

	a.stopWorker()
	zlog.Info("server stopped gracefully")
}

type app struct {
	router  *gin.Engine
	habits  *services.HabitService
	worker  *workers.SaveWorker
	sweeper *workers.SessionSweeper
	cancel  context.CancelFunc
	closers []func()
}

// newApp wires storage, services and HTTP handlers for the configured
// backends. The save worker and session sweeper run until stopWorker is
// called.
func newApp(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (*app, error) {
	a := &app{}
	checks := map[string]adapterHTTP.HealthCheck{}

	var (
		users     domain.UserRepository
		documents domain.SnapshotRepository
		db        *sqlx.DB
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		var err error
		db, err = sqlx.Connect(cfg.DBDriver, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		a.closers = append(a.closers, func() { db.Close() })

		if err := repository.EnsureSchema(ctx, db); err != nil {
			a.close()
			return nil, err
		}
		zlog.Info("database connected", zap.String("driver", cfg.DBDriver))

		users = repository.NewPostgresUserRepository(db)
		documents = repository.NewPostgresSnapshotRepository(db)
		checks["database"] = db.PingContext
	default:
		zlog.Warn("using in-memory storage, data is lost on restart")
		users = repository.NewInMemoryUserRepository()
		documents = repository.NewInMemorySnapshotRepository()
	}

	if cfg.DocumentStore == config.BackendMongo {
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })

		mongoDocs := repository.NewMongoSnapshotRepository(client.Database(cfg.MongoDB))
		if err := mongoDocs.EnsureIndexes(ctx); err != nil {
			a.close()
			return nil, err
		}
		documents = mongoDocs
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		zlog.Info("document store: mongo", zap.String("database", cfg.MongoDB))
	}

	var rdb *redis.Client
	if cfg.RedisEnabled {
		var err error
		rdb, err = cache.NewRedisClient(ctx, cache.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			zlog.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
			rdb = nil
		} else {
			a.closers = append(a.closers, func() { rdb.Close() })
			documents = repository.NewCachedSnapshotRepository(documents, rdb, zlog)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	authService := services.NewAuthService(users)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, users)
	a.habits = services.NewHabitService(documents, zlog,
		services.WithDefaultLocation(cfg.Timezone),
		services.WithLocationResolver(authService.UserLocation),
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.worker = workers.NewSaveWorker(a.habits, zlog, cfg.SaveDebounce)
	a.worker.Start(workerCtx)
	a.habits.AttachSaver(a.worker)
	a.sweeper = workers.NewSessionSweeper(a.habits, zlog, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)
	a.sweeper.Start(workerCtx)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(authService, tokenService, a.habits),
		HabitHandler: adapterHTTP.NewHabitHandler(a.habits),
		StatsHandler: adapterHTTP.NewStatsHandler(a.habits),
		SyncHandler:  adapterHTTP.NewSyncHandler(a.habits),
		TokenService: tokenService,
		Redis:        rdb,
		Logger:       zlog,
		HealthChecks: checks,
		RateLimit:    cfg.RateLimit,
		RateWindow:   cfg.RateWindow,
		StartTime:    time.Now(),
	})

	return a, nil
}

// stopWorker flushes every pending save and waits for the background
// workers to exit.
func (a *app) stopWorker() {
	if a.cancel == nil {
		return
	}
	a.cancel()

	deadline := time.After(15 * time.Second)
	for _, done := range []<-chan struct{}{a.sweeper.Done(), a.worker.Done()} {
		select {
		case <-done:
		case <-deadline:
		}
	}
	a.cancel = nil
}

func (a *app) close() {
	a.stopWorker()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
