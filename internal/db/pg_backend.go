package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/david/grant-agent/internal/models"
)

// PgBackend keeps the collection in Postgres, one jsonb document per grant,
// ordered by position so the newest-first order survives a round trip.
type PgBackend struct {
	pool *pgxpool.Pool
}

func NewPgBackend(pool *pgxpool.Pool) *PgBackend {
	return &PgBackend{pool: pool}
}

func (b *PgBackend) LoadAll(ctx context.Context) ([]models.GrantRecord, error) {
	rows, err := b.pool.Query(ctx, "SELECT doc FROM grants ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records := []models.GrantRecord{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var rec models.GrantRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode failed: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return records, nil
}

// SaveAll replaces the table contents in one transaction.
func (b *PgBackend) SaveAll(ctx context.Context, records []models.GrantRecord) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM grants"); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s failed: %w", rec.ID, err)
		}
		status := rec.Status
		if status == "" {
			status = models.StatusNotApplied
		}
		batch.Queue(`
			INSERT INTO grants (id, position, program_name, provider, relevance_score, status, doc, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, NOW())
		`, rec.ID, i, rec.ProgramName, rec.Provider, rec.RelevanceScore, string(status), string(doc))
	}

	results := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert %s failed: %w", records[i].ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("batch close failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}
