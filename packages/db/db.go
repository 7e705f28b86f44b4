// Package db provides the SQLite database that backs tabfetch's durable
// state: the last-used form fields, the browser session's tabs, and the
// cookie stores of both execution contexts.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS fields (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tabs (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cookies (
	scope     TEXT NOT NULL,
	domain    TEXT NOT NULL,
	path      TEXT NOT NULL,
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	secure    INTEGER NOT NULL DEFAULT 0,
	http_only INTEGER NOT NULL DEFAULT 0,
	expires   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (scope, domain, path, name)
);
`

// Client represents a database client
type Client struct {
	db           *sql.DB
	dataSource   string
	queryTimeout time.Duration
}

// NewClient opens the database named by a connection string, creating the
// file and its directory if needed, and applies the schema.
func NewClient(connectionString string) (*Client, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases and write ordering consistent.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Client{
		db:           db,
		dataSource:   dsn,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file the client was opened on.
func (c *Client) Path() string {
	return c.dataSource
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

// Query runs a query and hands each row to scan. Iteration stops at the
// first scan error.
func (c *Client) Query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// Tx runs fn in a transaction, committing when fn returns nil.
func (c *Client) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// parseConnectionString parses a connection string into a SQLite DSN
// Supported formats:
// - sqlite://path/to/db.sqlite
// - sqlite:./test.db
// - /plain/path/to/db.sqlite
// - :memory:
func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return "", fmt.Errorf("empty connection string")
	}

	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	}
	if strings.HasPrefix(connStr, "sqlite:") {
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	}

	if i := strings.Index(connStr, "://"); i > 0 {
		return "", fmt.Errorf("unsupported database scheme: %s", connStr[:i])
	}

	return connStr, nil
}
