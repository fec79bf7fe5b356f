// Package postgres persists sessions and the resource audit trail in
// PostgreSQL using pgx v5, and applies the schema with golang-migrate.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/greggjuri/chaos-dungeon/internal/config"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool from the given configuration.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. The pool is ready
// for queries upon successful return.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("host", cfg.Host).With("database", cfg.Name).Wrap(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("host", cfg.Host).With("database", cfg.Name).Wrapf(err, "pinging database")
	}

	return &Pool{pool: pool}, nil
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return oops.Code("DB_UNHEALTHY").With("timeout", timeout).Wrap(err)
	}
	return nil
}

// Sessions returns a SessionStore over the pool.
func (p *Pool) Sessions() *SessionStore { return NewSessionStore(p.pool) }

// Audit returns an AuditSink over the pool.
func (p *Pool) Audit() *AuditSink { return NewAuditSink(p.pool) }

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by stores.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
