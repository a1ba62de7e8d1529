package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	rev        INTEGER NOT NULL,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// Postgres stores snapshots in a documents table, one row per document.
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, docID string) (Snapshot, error) {
	snap := Snapshot{DocID: docID}
	err := p.pool.QueryRow(ctx,
		`SELECT rev, body, updated_at FROM documents WHERE id = $1`, docID,
	).Scan(&snap.Rev, &snap.Text, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", docID, err)
	}
	return snap, nil
}

func (p *Postgres) Save(ctx context.Context, snap Snapshot) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO documents (id, rev, body, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET rev = EXCLUDED.rev, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		WHERE documents.rev <= EXCLUDED.rev`,
		snap.DocID, snap.Rev, snap.Text, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", snap.DocID, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
