// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/parking/pkg/core/repo"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool is a database connection pool, embedding the *gorm.DB.
type Pool struct {
	*gorm.DB

	lockTimeout time.Duration
}

// PoolOption is a functional option for the NewPool function.
type PoolOption func(p *Pool) error

// WithTracing creates a span for each executed query using the global
// OpenTelemetry tracer provider.
func WithTracing() PoolOption {
	return func(p *Pool) error {
		if err := p.DB.Use(otelgorm.NewPlugin()); err != nil {
			return fmt.Errorf("installing otelgorm plugin: %w", err)
		}
		return nil
	}
}

// WithLockTimeout configures all transactions of a Pool to wait at
// most d for acquiring each row lock.
func WithLockTimeout(d time.Duration) PoolOption {
	return func(p *Pool) error {
		if d <= 0 {
			return fmt.Errorf("lock timeout (%v) is not positive", d)
		}
		p.lockTimeout = d
		return nil
	}
}

// NewPool opens a connection pool for the given postgresql url and
// tests it by acquiring one connection. GORM logs are forwarded to
// the default slog logger at the warning level.
func NewPool(
	ctx context.Context, url string, opts ...PoolOption,
) (*Pool, error) {
	gdb, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	gdb = gdb.Session(&gorm.Session{
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
				// Set to false in order to log with replaced vars
				ParameterizedQueries: true,
			}),
	})
	pool := &Pool{DB: gdb}
	for _, opt := range opts {
		if err := opt(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	err = pool.Conn(ctx, NoOpConnHandler)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return pool, nil
}

// ConnHandler is an alias for the repo.ConnHandler.
type ConnHandler = repo.ConnHandler

// NoOpConnHandler is a ConnHandler which does nothing.
func NoOpConnHandler(context.Context, repo.Conn) error {
	return nil
}

// Conn acquires a connection and passes it to f. The connection is
// returned to the pool when f returns.
func (p *Pool) Conn(ctx context.Context, f ConnHandler) error {
	return p.DB.WithContext(ctx).Connection(func(c *gorm.DB) error {
		cc := &Conn{DB: c, lockTimeout: p.lockTimeout}
		return f(ctx, cc)
	})
}

// Close closes all connections of the pool.
func (p *Pool) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
