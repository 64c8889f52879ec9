package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
)

func newMockBreaker(t *testing.T, cfg *Config) (*DBCircuitBreaker, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if cfg != nil {
		return NewDBCircuitBreakerWithConfig(db, *cfg), mock
	}
	return NewDBCircuitBreaker(db), mock
}

func TestNewDBCircuitBreaker(t *testing.T) {
	dcb, _ := newMockBreaker(t, nil)

	if dcb.db == nil {
		t.Error("expected db to be set")
	}
	if dcb.cb == nil {
		t.Error("expected circuit breaker to be set")
	}
	if dcb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state to be Closed, got %s", dcb.State())
	}
}

func TestDBCircuitBreaker_QueryContext_Success(t *testing.T) {
	dcb, mock := newMockBreaker(t, nil)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "url"}).
		AddRow(1, "https://example.com/advisory")
	mock.ExpectQuery("SELECT (.+) FROM articles").WillReturnRows(rows)

	result, err := dcb.QueryContext(ctx, "SELECT id, url FROM articles WHERE id = $1", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = result.Close() }()

	if !result.Next() {
		t.Fatal("expected at least one row")
	}

	var id int
	var url string
	if err := result.Scan(&id, &url); err != nil {
		t.Fatalf("failed to scan row: %v", err)
	}
	if id != 1 || url != "https://example.com/advisory" {
		t.Errorf("unexpected row: id=%d url=%s", id, url)
	}

	if dcb.State() != gobreaker.StateClosed {
		t.Errorf("expected state to remain Closed after success, got %s", dcb.State())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDBCircuitBreaker_QueryContext_SingleFailureStaysClosed(t *testing.T) {
	dcb, mock := newMockBreaker(t, nil)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM articles").
		WillReturnError(errors.New("database connection failed"))

	if _, err := dcb.QueryContext(ctx, "SELECT id FROM articles"); err == nil {
		t.Fatal("expected error, got nil")
	}

	if dcb.State() == gobreaker.StateOpen {
		t.Error("circuit should not be open after single failure")
	}
}

func TestDBCircuitBreaker_ExecContext_Success(t *testing.T) {
	dcb, mock := newMockBreaker(t, nil)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO article_vulnerabilities").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := dcb.ExecContext(ctx,
		"INSERT INTO article_vulnerabilities (article_id, vulnerability_id) VALUES ($1, $2)", 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("failed to get rows affected: %v", err)
	}
	if affected != 1 {
		t.Errorf("expected 1 row affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDBCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := Config{
		Name:             "test-db-opens",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
	dcb, mock := newMockBreaker(t, &cfg)
	ctx := context.Background()

	dbErr := errors.New("database connection failed")
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT (.+)").WillReturnError(dbErr)
	}
	for i := 0; i < 5; i++ {
		if _, err := dcb.QueryContext(ctx, "SELECT id FROM articles"); err == nil {
			t.Errorf("attempt %d: expected error, got nil", i+1)
		}
	}

	if !dcb.IsOpen() {
		t.Fatalf("expected circuit open after 5 consecutive failures, state: %s", dcb.State())
	}

	// Open circuit rejects without touching the database.
	_, err := dcb.QueryContext(ctx, "SELECT id FROM articles")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDBCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cfg := Config{
		Name:             "test-db-halfopen",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
	dcb, mock := newMockBreaker(t, &cfg)
	ctx := context.Background()

	dbErr := errors.New("database connection failed")
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT (.+)").WillReturnError(dbErr)
	}
	for i := 0; i < 5; i++ {
		_, _ = dcb.QueryContext(ctx, "SELECT id FROM articles")
	}
	if !dcb.IsOpen() {
		t.Fatal("expected circuit to be open")
	}

	time.Sleep(100 * time.Millisecond)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
	mock.ExpectQuery("SELECT (.+)").WillReturnRows(rows)

	result, err := dcb.QueryContext(ctx, "SELECT id FROM articles")
	if err != nil {
		t.Fatalf("expected query to succeed in half-open state, got %v", err)
	}
	_ = result.Close()
}

func TestDBCircuitBreaker_QueryRowContext(t *testing.T) {
	dcb, mock := newMockBreaker(t, nil)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(42)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(rows)

	var count int
	row := dcb.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to scan row: %v", err)
	}
	if count != 42 {
		t.Errorf("expected count 42, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDBCircuitBreaker_DB(t *testing.T) {
	dcb, _ := newMockBreaker(t, nil)

	if dcb.DB() != dcb.db {
		t.Error("expected DB() to return underlying database connection")
	}
}

func TestDBConfig(t *testing.T) {
	cfg := DBConfig()

	if cfg.Name != "database" {
		t.Errorf("expected name 'database', got '%s'", cfg.Name)
	}
	if cfg.FailureThreshold != 1.0 {
		t.Errorf("expected FailureThreshold 1.0, got %f", cfg.FailureThreshold)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.MinRequests != 5 {
		t.Errorf("expected MinRequests 5, got %d", cfg.MinRequests)
	}
}
