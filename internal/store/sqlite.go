package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/pkg/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite keeps documents as JSON text in a single table. Row ids preserve
// insertion order across replacements.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS documents (
			kind   TEXT NOT NULL,
			id     TEXT NOT NULL,
			parent TEXT NOT NULL DEFAULT '',
			body   TEXT NOT NULL,
			PRIMARY KEY (kind, id)
		)`,
	); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := s.db.Exec(
		`CREATE INDEX IF NOT EXISTS documents_parent ON documents (kind, parent)`,
	); err != nil {
		return fmt.Errorf("failed to create documents index: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, kind models.Kind, parent models.ID) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE kind = ? AND parent = ? ORDER BY rowid`,
		kind.String(), parent.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, key Key) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE kind = ? AND id = ? AND parent = ?`,
		key.Kind.String(), key.ID.String(), key.Parent.String(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return decodeDocument(body)
}

func (s *SQLite) Put(ctx context.Context, key Key, doc Document) error {
	body, err := codec.JSON.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (kind, id, parent, body) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET parent = excluded.parent, body = excluded.body`,
		key.Kind.String(), key.ID.String(), key.Parent.String(), string(body),
	); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND id = ? AND parent = ?`,
		key.Kind.String(), key.ID.String(), key.Parent.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteChildren(ctx context.Context, kind models.Kind, parent models.ID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND parent = ?`,
		kind.String(), parent.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete children: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func decodeDocument(body string) (Document, error) {
	var doc Document
	if err := codec.JSON.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}
