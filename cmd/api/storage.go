package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/config"
	"github.com/spec-kit/match-service/internal/persistence"
	"github.com/spec-kit/match-service/internal/repository"
	"github.com/spec-kit/match-service/internal/repository/memory"
	"github.com/spec-kit/match-service/internal/repository/pebblestore"
)

// storage is the repository pair selected by STORAGE_DRIVER.
type storage struct {
	matches      repository.MatchRepository
	participants repository.ParticipantRepository
	checks       map[string]handlers.Pinger
	closers      []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	s := &storage{checks: map[string]handlers.Pinger{}}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pg.Close)
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.matches = repository.NewMatchRepository(pg.PoolHandle())
		s.participants = repository.NewParticipantRepository(pg.PoolHandle())
		s.checks["postgres"] = pg

	case config.StorageDriverPebble:
		db, err := pebblestore.Open(cfg.Storage.PebbleDir)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("pebble close", zap.Error(err))
			}
		})
		s.matches = pebblestore.NewMatchStore(db)
		s.participants = pebblestore.NewParticipantStore(db)
		logger.Info("opened pebble store", zap.String("dir", cfg.Storage.PebbleDir))

	case config.StorageDriverMemory:
		s.matches = memory.NewMatchStore()
		s.participants = memory.NewParticipantStore()
		logger.Warn("using in-memory storage; data is lost on restart")

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	return s, nil
}
