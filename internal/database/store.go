package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/mpilhlt/filmstudio/internal/history"
)

// HistoryStore keeps generation rows in PostgreSQL.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

const insertGeneration = `
INSERT INTO generations (generation_id, kind, input, input_sealed, output, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const insertEmbedding = `
INSERT INTO outline_embeddings (generation_id, embedding)
VALUES ($1, $2)`

// Insert stores a row and its embedding in one transaction.
func (s *HistoryStore) Insert(ctx context.Context, row history.Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertGeneration,
		row.ID, row.Kind, row.Input, row.InputSealed, string(row.Output), row.CreatedAt); err != nil {
		return fmt.Errorf("unable to insert generation %s: %w", row.ID, err)
	}
	if len(row.Embedding) > 0 {
		if _, err := tx.Exec(ctx, insertEmbedding, row.ID, pgvector.NewVector(row.Embedding)); err != nil {
			return fmt.Errorf("unable to insert embedding of %s: %w", row.ID, err)
		}
	}
	return tx.Commit(ctx)
}

const selectGenerations = `
SELECT generation_id::text, kind, input, input_sealed, output::text, created_at
FROM generations
WHERE ($1 = '' OR kind = $1)
ORDER BY created_at DESC, generation_id
LIMIT $2 OFFSET $3`

// List returns matching rows, newest first. Embeddings are not loaded.
func (s *HistoryStore) List(ctx context.Context, q history.Query) ([]history.Row, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, selectGenerations, q.Kind, limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("unable to list generations: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, fmt.Errorf("unable to read generations: %w", err)
	}
	return out, nil
}

const selectGeneration = `
SELECT generation_id::text, kind, input, input_sealed, output::text, created_at
FROM generations
WHERE generation_id = $1`

func (s *HistoryStore) Get(ctx context.Context, id string) (history.Row, error) {
	rows, err := s.pool.Query(ctx, selectGeneration, id)
	if err != nil {
		return history.Row{}, fmt.Errorf("unable to get generation %s: %w", id, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, scanRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return history.Row{}, fmt.Errorf("%s: %w", id, history.ErrNotFound)
	}
	if err != nil {
		return history.Row{}, fmt.Errorf("unable to read generation %s: %w", id, err)
	}
	return row, nil
}

const selectNearest = `
SELECT g.generation_id::text, g.kind, g.input, g.input_sealed, g.output::text, g.created_at,
       1 - (e.embedding <=> $1) AS similarity
FROM outline_embeddings e
JOIN generations g ON g.generation_id = e.generation_id
WHERE g.kind = 'storyboard'
ORDER BY e.embedding <=> $1
LIMIT $2`

func (s *HistoryStore) Nearest(ctx context.Context, embedding []float32, n int) ([]history.RowMatch, error) {
	rows, err := s.pool.Query(ctx, selectNearest, pgvector.NewVector(embedding), n)
	if err != nil {
		return nil, fmt.Errorf("unable to query similar storyboards: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (history.RowMatch, error) {
		var m history.RowMatch
		var output string
		err := r.Scan(&m.ID, &m.Kind, &m.Input, &m.InputSealed, &output, &m.CreatedAt, &m.Similarity)
		m.Output = []byte(output)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read similar storyboards: %w", err)
	}
	return out, nil
}

func scanRow(r pgx.CollectableRow) (history.Row, error) {
	var row history.Row
	var output string
	err := r.Scan(&row.ID, &row.Kind, &row.Input, &row.InputSealed, &output, &row.CreatedAt)
	row.Output = []byte(output)
	return row, err
}
