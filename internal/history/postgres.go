package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

const migrationSQL = `
CREATE TABLE IF NOT EXISTS shorten_history (
    id            UUID PRIMARY KEY,
    service       TEXT NOT NULL,
    original_url  TEXT NOT NULL,
    short_url     TEXT NOT NULL DEFAULT '',
    error_kind    TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS shorten_history_created_at_idx
    ON shorten_history (created_at DESC, id DESC);
`

const insertRecordSQL = `
INSERT INTO shorten_history (id, service, original_url, short_url, error_kind, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const listRecordsSQL = `
SELECT id, service, original_url, short_url, error_kind, error_message, created_at
FROM shorten_history
ORDER BY created_at DESC, id DESC
LIMIT $1`

// PostgresRepository stores records in the shorten_history table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgres connects to databaseURL and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string, maxConns int32) (*PostgresRepository, error) {
	const op = "history.NewPostgres"

	if databaseURL == "" {
		return nil, errx.E(op, errx.Invalid, errors.New("database url cannot be empty"))
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errx.E(op, errx.Invalid, fmt.Errorf("failed to parse database url: %w", err))
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, fmt.Errorf("failed to create connection pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errx.E(op, errx.Unavailable, fmt.Errorf("failed to ping database: %w", err))
	}

	return NewPostgresFromPool(pool), nil
}

// NewPostgresFromPool wraps an existing pool. Close closes the pool.
func NewPostgresFromPool(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the history table and index if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const op = "history.PostgresRepository.Migrate"

	if _, err := r.pool.Exec(ctx, migrationSQL); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, rec Record) error {
	const op = "history.PostgresRepository.Save"

	if rec.ID == uuid.Nil {
		return errx.E(op, errx.Invalid, errors.New("record id is required"))
	}

	_, err := r.pool.Exec(ctx, insertRecordSQL,
		rec.ID, rec.Service, rec.OriginalURL, rec.ShortURL,
		rec.ErrorKind, rec.ErrorMessage, rec.CreatedAt,
	)
	if err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Record, error) {
	const op = "history.PostgresRepository.List"

	rows, err := r.pool.Query(ctx, listRecordsSQL, normalizeLimit(limit))
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		err := row.Scan(&rec.ID, &rec.Service, &rec.OriginalURL, &rec.ShortURL,
			&rec.ErrorKind, &rec.ErrorMessage, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	for i := range records {
		records[i].CreatedAt = records[i].CreatedAt.UTC()
	}
	return records, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func mapRepoError(op string, err error) error {
	if isUniqueViolation(err) {
		return errx.E(op, errx.Invalid, err)
	}
	return errx.E(op, errx.Unavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}
