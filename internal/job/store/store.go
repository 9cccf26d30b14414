// Package store is the Postgres-backed job store. Records are upserted
// by id with the result payload stored as JSONB.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/job"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Put(ctx context.Context, rec job.Record) error {
	var result []byte

	if rec.Result != nil {
		var err error

		result, err = json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshal job result: %w", err)
		}
	}

	query := `
		INSERT INTO jobs (id, status, result, error, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, result = EXCLUDED.result,
		    error = EXCLUDED.error, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.Status, result, nullString(rec.Error)); err != nil {
		return fmt.Errorf("upsert job %s: %w", rec.ID, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (job.Record, bool, error) {
	query := `SELECT id, status, result, error, updated_at FROM jobs WHERE id = $1`

	var (
		rec      job.Record
		status   string
		result   []byte
		errorMsg sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &status, &result, &errorMsg, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return job.Record{}, false, nil
	}

	if err != nil {
		return job.Record{}, false, fmt.Errorf("select job %s: %w", id, err)
	}

	rec.Status = job.Status(status)
	rec.Error = errorMsg.String

	if len(result) > 0 {
		rec.Result = &job.Result{}
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return job.Record{}, false, fmt.Errorf("unmarshal job result: %w", err)
		}
	}

	return rec, true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
