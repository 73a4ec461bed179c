package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	"github.com/fastygo/taskflow/internal/infrastructure/queue"
	redisInfra "github.com/fastygo/taskflow/internal/infrastructure/redis"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/services"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/metrics"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/guarded"
	"github.com/fastygo/taskflow/repository/memory"
	"github.com/fastygo/taskflow/repository/postgres"
	redisRepo "github.com/fastygo/taskflow/repository/redis"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	memberUC "github.com/fastygo/taskflow/usecase/member"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

// storage bundles the repositories of the selected driver.
type storage struct {
	tasks    repository.TaskRepository
	stats    repository.StatsRepository
	users    repository.UserRepository
	members  repository.MemberDirectory
	sessions repository.SessionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	var appMetrics *metrics.Metrics
	if cfg.HTTP.EnableMetrics {
		appMetrics = metrics.New()
	}

	var (
		pool        *pgxpool.Pool
		redisClient *redislib.Client
		store       storage
	)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		store = storage{
			tasks:   postgres.NewTaskRepository(pool),
			stats:   postgres.NewStatsRepository(pool),
			users:   postgres.NewUserRepository(pool),
			members: postgres.NewMemberDirectory(pool),
		}
	default:
		zapLogger.Warn("using in-memory storage; data is lost on restart")
		store = storage{
			tasks: memory.NewTaskRepository(),
			stats: memory.NewStatsRepository(),
			users: memory.NewUserRepository(),
			members: memory.NewMemberDirectory(
				domain.Member{ID: "1", Name: "John Doe", Email: "john@example.com"},
				domain.Member{ID: "2", Name: "Jane Smith", Email: "jane@example.com"},
			),
		}
	}

	if cfg.Breaker.Enabled {
		settings := guarded.Settings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}
		store.tasks = guarded.Tasks(store.tasks, guarded.NewBreaker("tasks", settings, zapLogger))
		store.stats = guarded.Stats(store.stats, guarded.NewBreaker("user_stats", settings, zapLogger))
	}

	if cfg.Redis.URL != "" {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.RegisterCloser("redis", redisClient.Close)
		store.sessions = redisRepo.NewSessionRepository(redisClient, cfg.Redis.SessionTTL)
	} else {
		store.sessions = memory.NewSessionRepository(cfg.Redis.SessionTTL)
	}

	staleQueue, err := queue.Open(cfg.Stats.QueuePath, "")
	if err != nil {
		zapLogger.Fatal("failed to open stale stats queue", zap.Error(err))
	}
	manager.RegisterCloser("stale_queue", staleQueue.Close)

	mon := monitor.New(monitor.Deps{
		Storage:  cfg.Storage.Driver,
		Postgres: pool,
		Redis:    redisClient,
		Queue:    staleQueue,
		Metrics:  appMetrics,
	}, cfg.Context.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	taskUseCase := taskUC.New(store.tasks, store.stats, zapLogger, taskUC.Options{
		DefaultCategory: cfg.Tasks.DefaultCategory,
		SortLocale:      cfg.Tasks.SortLocale,
		Stale:           services.NewStaleMarker(staleQueue, appMetrics, zapLogger),
		Metrics:         appMetrics,
	})
	authUseCase := authUC.New(store.users, store.sessions, cfg.Auth.AutoRegister, zapLogger)
	memberUseCase := memberUC.New(store.members, zapLogger)

	reconciler := services.NewStatsReconciler(
		staleQueue,
		mon,
		taskUseCase,
		appMetrics,
		zapLogger,
		services.ReconcilerConfig{
			Interval:   cfg.Stats.ReconcileInterval,
			BatchSize:  cfg.Stats.BatchSize,
			MaxRetries: cfg.Stats.MaxRetry,
			Retention:  time.Duration(cfg.Stats.RetentionHours) * time.Hour,
		},
	)
	reconciler.Start()
	manager.Register("stats_reconciler", func(ctx context.Context) error {
		reconciler.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Redis.SessionTTL, cfg.Auth.OpenLogin),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Stats:   apiHandler.NewStatsHandler(taskUseCase, ctxAdapter, zapLogger),
		Members: apiHandler.NewMemberHandler(memberUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authConfig := middleware.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.JWTIssuer,
		Sessions: authUseCase,
		Timeout:  cfg.Context.RequestTimeout,
	}
	// Sessions are minted from a bearer token only, never from another session.
	loginConfig := authConfig
	loginConfig.Sessions = nil
	if cfg.Auth.OpenLogin {
		zapLogger.Warn("open login enabled; sessions are issued without credentials")
	} else if cfg.Auth.JWTSecret == "" {
		zapLogger.Warn("no JWT_SECRET and open login disabled; session login is unavailable")
	}
	r := router.New(handlers, router.Middleware{
		Auth:  middleware.Auth(authConfig, zapLogger),
		Login: middleware.Optional(loginConfig, zapLogger),
	}, appMetrics)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
