package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jubayerahmmad/study-shelf-server/internal/auth"
	"github.com/jubayerahmmad/study-shelf-server/internal/config"
	"github.com/jubayerahmmad/study-shelf-server/internal/logger"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository/memory"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository/mongodb"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository/postgres"
	"github.com/jubayerahmmad/study-shelf-server/internal/server"
	"github.com/jubayerahmmad/study-shelf-server/internal/service"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	readTimeout     = 15 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer cancel()

	cfg, err := config.ReadConfig()
	zlog := logger.SetupLogger(cfg.DebugFlag)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Invalid configuration")
	}
	zlog.Info().Str("storage", cfg.Storage).Bool("production", cfg.Production).Msg("Start server")
	zlog.Debug().Any("config", cfg).Msg("Check cfg value")

	startCtx, startCancel := context.WithTimeout(ctx, startupTimeout)
	storage, err := openStorage(startCtx, cfg)
	startCancel()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Connections db failed")
	}

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(
		service.NewCatalog(storage),
		service.NewLending(storage, zlog),
		storage,
		auth.NewManager(cfg.Secret, cfg.Production),
		zlog,
	)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: readTimeout,
	}

	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		zlog.Info().Str("addr", cfg.Addr).Msg("Server started")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gCtx.Done()
		return shutdown(httpSrv, storage, zlog)
	})

	if err = group.Wait(); err != nil {
		zlog.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	zlog.Info().Msg("Server stopped")
}

func openStorage(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		repo, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err = repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	case config.StoragePostgres:
		repo, err := postgres.Connect(ctx, cfg.DBAddr)
		if err != nil {
			return nil, err
		}
		if err = repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	case config.StorageMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

func shutdown(httpSrv *http.Server, storage repository.Store, zlog *zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	zlog.Info().Msg("Shutting down")
	errs := []error{}
	if err := httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := storage.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
