package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proconnect/internal/auth"
	"proconnect/internal/config"
	"proconnect/internal/database"
	"proconnect/internal/files"
	"proconnect/internal/logger"
	"proconnect/internal/posts"
	"proconnect/internal/server"
	"proconnect/internal/session"
	"proconnect/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	lgr := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.SetDefault(lgr)

	if err := run(cfg, lgr); err != nil {
		slog.Error("ProConnect stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, lgr *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("Starting ProConnect",
		"env", cfg.AppEnv,
		"addr", cfg.Addr(),
		"session_store", cfg.Session.Store,
		"storage", cfg.Storage.Backend,
	)

	// Initialize database
	dbCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := database.New(dbCtx, database.Options{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()
	slog.Info("Connected to database")

	// Redis is optional: it backs the redis session store and the posts cache.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			if cfg.Session.Store == config.SessionStoreRedis {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			slog.Warn("Redis connection failed, caching disabled", "addr", cfg.Redis.Addr, "error", err)
			rdb = nil
		} else {
			slog.Info("Connected to Redis", "addr", cfg.Redis.Addr)
		}
	}

	var sessionStore session.Store
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		sessionStore = session.NewRedisStore(rdb)
	case config.SessionStoreMemory:
		slog.Warn("Using in-memory session store; sessions are lost on restart")
		sessionStore = session.NewMemoryStore()
	default:
		sessionStore = session.NewPostgresStore(db)
	}
	sessionMgr := session.NewManager(sessionStore)

	if cfg.Session.SweepInterval > 0 {
		go session.NewSweeper(sessionStore, cfg.Session.SweepInterval, lgr).Run(ctx)
	}

	var objects storage.Service
	switch cfg.Storage.Backend {
	case config.StorageS3:
		objects, err = storage.NewS3(ctx, storage.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			PublicEndpoint: cfg.S3.PublicEndpoint,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			UseSSL:         cfg.S3.UseSSL,
		})
	default:
		objects, err = storage.NewLocal(cfg.Storage.LocalDir)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	fileService := files.NewService(objects, files.NewValidator(files.MaxFileSize))

	users := auth.NewPostgresUserRepository(db)
	authService := auth.NewService(users, time.Now)
	postService := posts.NewService(posts.NewRepository(db), rdb)

	app := server.New(cfg.HTTP, server.Dependencies{
		DB:       db,
		Identity: auth.NewIdentityResolver(sessionMgr, users),
		Auth:     auth.NewHandler(authService, sessionMgr, cfg.Production()),
		Posts:    posts.NewHandler(postService, fileService),
		Files:    fileService,
		Logger:   lgr,
	})
	httpServer := app.HTTPServer(cfg.Addr())

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("ProConnect listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down ProConnect")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("ProConnect stopped")
	return nil
}
