// Package postgres implements docstore.Store on PostgreSQL, keeping each
// document as a jsonb value.
//
// Array union/remove and field updates are single UPDATE statements built
// from jsonb operators, so each one is atomic on its row without an explicit
// transaction or row lock.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store is a docstore.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT        NOT NULL,
			id         TEXT        NOT NULL,
			data       JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data);
	`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound(collection, id)
	}
	if err != nil {
		return fmt.Errorf("postgres: getting %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("postgres: decoding %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	if err := docstore.ValidateField(field); err != nil {
		return nil, err
	}
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("postgres: encoding query value: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = $1 AND data -> $2::text = $3::jsonb
		 ORDER BY id`,
		collection, field, string(want),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: querying %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("postgres: scanning %s row: %w", collection, err)
		}
		out = append(out, docstore.Document{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating %s rows: %w", collection, err)
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
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("postgres: encoding %s/%s: %w", collection, id, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = now()`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("postgres: writing %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

// current is the field's array value, treating a missing key or JSON null
// as an empty array. $3 is always the field name.
const current = `COALESCE(NULLIF(data -> $3::text, 'null'::jsonb), '[]'::jsonb)`

// unionSQL appends the distinct input values that are not yet present, in
// input order.
const unionSQL = `
	UPDATE documents
	SET data = jsonb_set(data, ARRAY[$3::text], ` + current + ` || COALESCE((
			SELECT jsonb_agg(to_jsonb(u.v) ORDER BY u.first)
			FROM (
				SELECT v, min(ord) AS first
				FROM unnest($4::text[]) WITH ORDINALITY AS input(v, ord)
				GROUP BY v
			) u
			WHERE NOT (` + current + ` ? u.v)
		), '[]'::jsonb), true),
		updated_at = now()
	WHERE collection = $1 AND id = $2`

// removeSQL keeps every element not in the input, preserving order.
const removeSQL = `
	UPDATE documents
	SET data = jsonb_set(data, ARRAY[$3::text], COALESCE((
			SELECT jsonb_agg(e ORDER BY ord)
			FROM jsonb_array_elements(` + current + `) WITH ORDINALITY AS a(e, ord)
			WHERE NOT ((e #>> '{}') = ANY($4::text[]))
		), '[]'::jsonb), true),
		updated_at = now()
	WHERE collection = $1 AND id = $2`

func (s *Store) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	return s.exec(ctx, unionSQL, collection, id, field, values)
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	return s.exec(ctx, removeSQL, collection, id, field, values)
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("postgres: encoding field %s: %w", field, err)
	}
	return s.exec(ctx,
		`UPDATE documents
		 SET data = jsonb_set(data, ARRAY[$3::text], $4::jsonb, true), updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, field, string(encoded),
	)
}

// exec runs a single-row update and maps "no row" to NotFound.
func (s *Store) exec(ctx context.Context, sql, collection, id, field string, arg any) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}
	if values, ok := arg.([]string); ok && values == nil {
		arg = []string{}
	}
	tag, err := s.pool.Exec(ctx, sql, collection, id, field, arg)
	if err != nil {
		return fmt.Errorf("postgres: updating %s/%s.%s: %w", collection, id, field, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(collection, id)
	}
	return nil
}
