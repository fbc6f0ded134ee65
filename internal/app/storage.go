package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-bank/db"
	"github.com/gokatarajesh/quiz-bank/internal/config"
	"github.com/gokatarajesh/quiz-bank/internal/storage"
)

// OpenStorage connects the backend selected by STORAGE_BACKEND.
func OpenStorage(ctx context.Context, cfg *config.App, logger zerolog.Logger) (storage.KV, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("memory storage selected; questions are lost on restart")
		return storage.NewMemoryStore(), nil

	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.Storage.FileDir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.Info().Str("dir", cfg.Storage.FileDir).Msg("file storage ready")
		return fs, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		rs := storage.NewRedisStore(client, cfg.Name)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis storage ready")
		return rs, nil

	case config.BackendPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := migrate(ctx, cfg.PostgresDSN()); err != nil {
				return nil, err
			}
			logger.Info().Msg("postgres migrations applied")
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		ps := storage.NewPostgresStore(pool)
		if err := ps.Ping(ctx); err != nil {
			ps.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("postgres storage ready")
		return ps, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// migrate runs the embedded goose migrations over a database/sql handle.
func migrate(ctx context.Context, dsn string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer conn.Close()
	return db.Up(ctx, conn)
}
