package store

import (
	"go.uber.org/zap"
)

// Config selects the snapshot backend. Fields other than Backend are only
// read by the backend they belong to.
type Config struct {
	Backend     string // memory, file, sqlite, redis, postgres
	Dir         string
	SqlitePath  string
	RedisAddr   string
	PostgresDSN string
}

// Open builds the configured store. A backend that cannot be reached is not
// fatal: the prefetcher can run memory-only, so Open logs a warning and
// falls back instead of returning an error.
func Open(cfg Config, log *zap.Logger) Store {
	var (
		s   Store
		err error
	)

	switch cfg.Backend {
	case "file":
		s, err = NewFile(cfg.Dir)
	case "sqlite":
		s, err = NewSqlite(cfg.SqlitePath)
	case "redis":
		s, err = NewRedis(cfg.RedisAddr)
	case "postgres":
		s, err = NewPostgres(cfg.PostgresDSN)
	case "", "memory":
		return NewMemory()
	default:
		log.Warn("unknown store backend, using in-memory store",
			zap.String("backend", cfg.Backend))
		return NewMemory()
	}

	if err != nil {
		log.Warn("store backend unavailable, falling back to in-memory store",
			zap.String("backend", cfg.Backend),
			zap.Error(err))
		return NewMemory()
	}
	return s
}
