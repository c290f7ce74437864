package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dialogues (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    nodes      INTEGER NOT NULL DEFAULT 0,
    data       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_dialogues_updated_at ON dialogues(updated_at DESC);
`

// PostgresStore keeps dialogues in a PostgreSQL table via pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pgx connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateSchema creates the dialogues table if it doesn't exist.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM dialogues WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return decode(data)
}

func (s *PostgresStore) Put(ctx context.Context, sess *Session) error {
	if err := touch(sess); err != nil {
		return err
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO dialogues (id, name, nodes, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, nodes = EXCLUDED.nodes, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.Name, len(sess.Document.Nodes), data, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, nodes, updated_at FROM dialogues ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Nodes, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM dialogues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
