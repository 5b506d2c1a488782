// Package database opens the Postgres pool and applies schema migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"smartparking/internal/platform/config"
)

const pingTimeout = 5 * time.Second

// Pool is a *sql.DB on the pgx stdlib driver.
type Pool struct {
	db *sql.DB
}

// New opens the pool and verifies it with a ping. With no URL it returns
// nil, nil and callers run on memory stores. Pool statistics are exported
// on reg when it is not nil.
func New(ctx context.Context, cfg config.Database, reg prometheus.Registerer) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}
	if reg != nil {
		if err := reg.Register(collectors.NewDBStatsCollector(db, "smartparking")); err != nil {
			return nil, errors.Join(fmt.Errorf("register db stats: %w", err), db.Close())
		}
	}
	return &Pool{db: db}, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health is a readiness check.
func (p *Pool) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	return p.db.Close()
}
