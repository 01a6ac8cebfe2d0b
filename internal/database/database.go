package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"quiz-review/internal/logger"

	"go.uber.org/zap"
)

// DSN builds the go-sqlite3 connection string for the attempt store file.
// Transactions take the write lock on BEGIN and wait up to busyTimeoutMs
// for another process to release it.
func DSN(path string, busyTimeoutMs int) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeoutMs))
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	q.Set("_foreign_keys", "on")
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}

// NewSQLXSQLiteDB opens the attempt store, creating its parent directory
// when needed.
func NewSQLXSQLiteDB(path string, busyTimeoutMs int) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Connect("sqlite3", DSN(path, busyTimeoutMs))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	// one connection keeps every statement of a transaction on the same handle
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Get().Info("Connected to attempt store", zap.String("path", path))
	return db, nil
}
