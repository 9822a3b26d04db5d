package app

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/internal/balance/store/drivers/memory"
	redisstore "github.com/aussiebroadwan/balancebot/internal/balance/store/drivers/redis"
	"github.com/aussiebroadwan/balancebot/internal/balance/store/drivers/sqlite"
)

// OpenStore opens the configured backend and brings its schema up to date.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.StateBackend {
	case BackendMemory:
		st = memory.NewStore()
	case BackendSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		st, err = sqlite.NewStore(dsn)
	case BackendRedis:
		st, err = redisstore.New(ctx, redisstore.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StateBackend, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply %s migrations: %w", cfg.StateBackend, err)
	}

	return st, nil
}
