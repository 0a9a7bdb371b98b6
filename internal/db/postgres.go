// Package db opens the Postgres connection pool and classifies store-level failures.
package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable is returned when the store cannot be reached within the
// caller's deadline. Callers surface it immediately and do not retry.
var ErrUnavailable = errors.New("store unavailable")

// Open opens a Postgres connection pool using the given DSN and verifies
// connectivity with a bounded ping. Caller must call Close when done.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// WrapErr maps driver-level timeouts and connection failures to ErrUnavailable
// so services can report StoreUnavailable distinctly. Other errors pass through.
func WrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
		// Class 08: connection exception.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
