//go:build testutil
// +build testutil

// Package testdb starts a throwaway MySQL container with the schema
// applied.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/taxischool/internal/database"
)

// DBHandle is a migrated MySQL database running in a container.
type DBHandle struct {
	DB     *sql.DB
	cancel func()
	stop   func(context.Context) error
}

// Close closes the pool and terminates the container.
func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start runs a MySQL container, applies the migrations and returns an
// open pool.  Callers must Close the handle.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)

	c, err := mysql.RunContainer(ctx,
		tc.WithImage("mysql:8.0.36"),
		mysql.WithDatabase("taxischool"),
		mysql.WithUsername("school"),
		mysql.WithPassword("school"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	dsn, err := c.ConnectionString(ctx, "charset=utf8mb4", "parseTime=true", "loc=UTC", "multiStatements=true")
	if err != nil {
		_ = c.Terminate(ctx)
		cancel()
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		_ = c.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := waitReady(ctx, db); err != nil {
		_ = c.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = c.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{
		DB:     db,
		cancel: cancel,
		stop:   c.Terminate,
	}, nil
}

func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(30 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
