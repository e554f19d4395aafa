// Package db stores the course catalog in PostgreSQL.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Database struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool for connectionString.
func Connect(ctx context.Context, connectionString string) (*Database, error) {
	if connectionString == "" {
		return nil, errors.New("database connection string is not set")
	}

	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}
	return &Database{Pool: pool}, nil
}

func (d *Database) Close() {
	d.Pool.Close()
}
