package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB the repositories need. It is also
// satisfied by circuitbreaker.DBCircuitBreaker, which lets the wiring layer
// put breaker protection in front of every repository query.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
