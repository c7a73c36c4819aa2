package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"renttrack/internal/model"
	"renttrack/migrations"
)

// documentKey is the single fixed key the shared collection lives under.
const documentKey = "shared-properties"

// SQLite implements Gateway backed by a SQLite key-value table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads the shared document. A missing key yields an empty
// collection, not an error.
func (s *SQLite) Load(ctx context.Context) (*model.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, documentKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Document{
			Properties:  []model.Property{},
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Properties == nil {
		doc.Properties = []model.Property{}
	}
	return &doc, nil
}

// Save replaces the shared document wholesale.
func (s *SQLite) Save(ctx context.Context, properties []model.Property) (*model.Document, error) {
	if properties == nil {
		properties = []model.Property{}
	}
	doc := &model.Document{
		Properties:  properties,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		documentKey, string(raw), doc.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Clear deletes the shared document. Clearing an empty store is a no-op.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, documentKey); err != nil {
		return fmt.Errorf("clear document: %w", err)
	}
	return nil
}
