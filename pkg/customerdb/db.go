// Package customerdb owns the customer directory and the audit trail.
// The Postgres implementations back the server; the CSV and file based
// ones back local runs where no database is available.
package customerdb

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
}

// NewDB opens a bun handle over the Postgres DSN. The caller owns the
// handle and closes it on shutdown.
func NewDB(cfg Config) *bun.DB {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	)
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	return bun.NewDB(sqldb, pgdialect.New())
}
