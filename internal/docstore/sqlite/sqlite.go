// Package sqlite implements docstore.Store on an embedded SQLite database.
//
// Every document lives in one table keyed by (collection, id), with its body
// stored as JSON text. Queries use SQLite's JSON operators on that text, so
// the schema never changes when a document shape does.
//
// CONCURRENCY:
// The pool is capped at a single connection. Array mutations run as a
// read-modify-write inside one transaction on that connection, which makes
// them atomic with respect to every other caller of the same Store. Separate
// processes sharing the file are serialized by SQLite's own write lock and
// busy_timeout.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/docstore"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ docstore.Store = (*Store)(nil)

// Store is a docstore.Store backed by one SQLite database file.
type Store struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/vocapp.db"  file-based database
//   - ":memory:"        in-memory database, lost on Close
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// One connection: keeps ":memory:" databases alive for the life of the
	// Store and serializes the read-modify-write transactions below.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(collection, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	var data string
	err := s.conn.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: getting %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("sqlite: decoding %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query matches on the JSON form of the field: data -> '$.field' yields
// minified JSON, and json(?) minifies the encoded value the same way.
func (s *Store) Query(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	if err := docstore.ValidateField(field); err != nil {
		return nil, err
	}
	want, err := encode(value)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encoding query value: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = ? AND (data -> ('$.' || ?)) = json(?)
		 ORDER BY id`,
		collection, field, string(want),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", collection, err)
		}
		out = append(out, docstore.Document{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := xid.New().String()
	if err := s.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s/%s: %w", collection, id, err)
	}
	now := time.Now().UTC()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return docstore.ApplyArrayOp(data, field, func(arr []string) []string {
			return docstore.Union(arr, values)
		})
	})
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return docstore.ApplyArrayOp(data, field, func(arr []string) []string {
			return docstore.Remove(arr, values)
		})
	})
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return s.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return docstore.SetField(data, field, value)
	})
}

// mutate applies fn to one document inside a transaction.
func (s *Store) mutate(ctx context.Context, collection, id, field string, fn func([]byte) ([]byte, error)) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: reading %s/%s: %w", collection, id, err)
	}

	updated, err := fn([]byte(data))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(updated), time.Now().UTC(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s/%s.%s: %w", collection, id, field, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing %s/%s: %w", collection, id, err)
	}
	return nil
}

// encode marshals v without HTML escaping so the bytes match SQLite's own
// JSON rendering of the same value.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
