package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agritruth/trace/internal/domain"
)

// PostgresStore persists the queue as a flat ordered table for deployments
// that need the review backlog to survive restarts.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// EnsureSchema creates the queue table if missing. Position preserves
// insertion order; new optional columns may be added without versioning.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS moderation_queue (
			position       BIGSERIAL,
			id             TEXT PRIMARY KEY,
			batch_id       TEXT NOT NULL DEFAULT '',
			farmer_aadhaar TEXT NOT NULL DEFAULT '',
			summary        TEXT NOT NULL DEFAULT '',
			notes          TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'pending',
			created_at     TIMESTAMPTZ NOT NULL,
			decided_at     TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("ensure moderation schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, item Item) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO moderation_queue (id, batch_id, farmer_aadhaar, summary, notes, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.BatchID, item.FarmerAadhaar, item.Summary, item.Notes, string(item.Status), item.CreatedAt)
	if err != nil {
		return fmt.Errorf("queue insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, status Status) ([]Item, error) {
	query := `SELECT id, batch_id, farmer_aadhaar, summary, notes, status, created_at, decided_at
		 FROM moderation_queue`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY position ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queue list failed: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var st string
		var decidedAt *time.Time
		if err := rows.Scan(&item.ID, &item.BatchID, &item.FarmerAadhaar, &item.Summary,
			&item.Notes, &st, &item.CreatedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("queue scan failed: %w", err)
		}
		item.Status = Status(st)
		item.DecidedAt = decidedAt
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Decide(ctx context.Context, id string, status Status, notes string, at time.Time) (Item, error) {
	var item Item
	var st string
	var decidedAt *time.Time
	err := s.db.QueryRow(ctx,
		`UPDATE moderation_queue
		 SET status = $2, notes = CASE WHEN $3 = '' THEN notes ELSE $3 END, decided_at = $4
		 WHERE id = $1
		 RETURNING id, batch_id, farmer_aadhaar, summary, notes, status, created_at, decided_at`,
		id, string(status), notes, at,
	).Scan(&item.ID, &item.BatchID, &item.FarmerAadhaar, &item.Summary,
		&item.Notes, &st, &item.CreatedAt, &decidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, domain.ErrNotFound
		}
		return Item{}, fmt.Errorf("queue decide failed: %w", err)
	}
	item.Status = Status(st)
	item.DecidedAt = decidedAt
	return item, nil
}
