// Package database opens the Postgres connection behind the job store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// pingTimeout bounds the startup reachability check so a wrong DB_HOST
// fails fast instead of hanging API startup.
const pingTimeout = 5 * time.Second

// New opens a pool sized for the job store's write-mostly traffic:
// maxConns caps open connections, a fifth of them are kept idle for the
// status polling reads.
func New(ctx context.Context, connStr string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	idle := maxConns / 5
	if idle < 1 {
		idle = 1
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
