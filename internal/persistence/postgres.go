package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/config"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// PostgresBackend stores each collection as one jsonb row.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend returns a backend over pool. The collections table is
// created by RunMigrations.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Read(ctx context.Context, collection Collection) ([]byte, bool, error) {
	const query = `SELECT body FROM collections WHERE name=$1`

	var body []byte
	if err := b.pool.QueryRow(ctx, query, string(collection)).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return body, true, nil
}

func (b *PostgresBackend) Write(ctx context.Context, collection Collection, data []byte) error {
	const query = `
        INSERT INTO collections (name, body, updated_at)
        VALUES ($1, $2::jsonb, NOW())
        ON CONFLICT (name) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`

	_, err := b.pool.Exec(ctx, query, string(collection), string(data))
	return err
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if b.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return b.pool.Ping(ctx)
}
