// Package sqlite implements ports.SettingsStore on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

//go:embed schema.sql
var schemaSQL string

// Store keeps one row per terminal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveTransactionNumber(ctx context.Context, terminalID string, number int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO terminal_settings (terminal_id, transaction_number, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(terminal_id) DO UPDATE SET
			transaction_number = excluded.transaction_number,
			updated_at = excluded.updated_at`,
		terminalID, number, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save transaction number: %w", err)
	}
	return nil
}

func (s *Store) LoadTransactionNumber(ctx context.Context, terminalID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT transaction_number FROM terminal_settings WHERE terminal_id = ?`, terminalID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrSettingNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load transaction number: %w", err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, terminalID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM terminal_settings WHERE terminal_id = ?`, terminalID)
	return err
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT terminal_id FROM terminal_settings ORDER BY terminal_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
