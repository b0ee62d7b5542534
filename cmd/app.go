package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/relay"
	"github.com/immxrtalbeast/codecollab/internal/repository"
	"github.com/immxrtalbeast/codecollab/internal/service"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
)

type app struct {
	cfg       *config.Config
	log       *slog.Logger
	snapshots repository.SnapshotStore
	persister *service.Persister
	relay     *relay.Relay
	sessions  *service.SessionService
	closers   []func() error
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	snapshots, closeStore, err := openSnapshotStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}

	persister := service.NewPersister(snapshots, log)
	r := relay.New(cfg.Relay.Backlog, log)

	sessions := service.NewSessionService(
		repository.NewInMemorySessionStore(),
		snapshots,
		persister,
		r,
		log,
		service.Options{
			DefaultMaxParticipants: cfg.Sessions.DefaultMaxParticipants,
			MaxParticipantsLimit:   cfg.Sessions.MaxParticipantsLimit,
			MaxDocumentBytes:       cfg.Sessions.MaxDocumentBytes,
			Limits: domain.Limits{
				ChatHistory:     cfg.Sessions.ChatHistoryLimit,
				SignalRetention: cfg.Sessions.SignalRetention,
				SignalLimit:     cfg.Sessions.SignalLimit,
			},
			IdleTimeout:       cfg.Sessions.IdleTimeout,
			InactiveRetention: cfg.Sessions.InactiveRetention,
		},
	)

	return &app{
		cfg:       cfg,
		log:       log,
		snapshots: snapshots,
		persister: persister,
		relay:     r,
		sessions:  sessions,
		closers:   []func() error{closeStore},
	}, nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Warn("failed to close resource", sl.Err(err))
		}
	}
}

func openSnapshotStore(cfg config.StorageConfig) (repository.SnapshotStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.StorageMemory:
		return repository.NewInMemorySnapshotStore(), noop, nil

	case config.StorageSQLite, config.StoragePostgres:
		db, err := repository.OpenGorm(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if cfg.Driver == config.StoragePostgres {
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
		return repository.NewGormSnapshotStore(db), sqlDB.Close, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		return repository.NewRedisSnapshotStore(client, cfg.Redis.KeyPrefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
