package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/repo"
)

var _ repo.PollLog = (*Store)(nil)

// Schema is applied by EnsureSchema; the table is append-only.
const Schema = `
CREATE TABLE IF NOT EXISTS poll_log (
  id          BIGSERIAL PRIMARY KEY,
  location    TEXT NOT NULL,
  location_id INTEGER NOT NULL,
  status_code INTEGER NULL,
  body        TEXT NOT NULL DEFAULT '',
  error       TEXT NOT NULL DEFAULT '',
  slot_count  INTEGER NOT NULL DEFAULT 0,
  latency_ms  DOUBLE PRECISION NOT NULL DEFAULT 0,
  polled_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_log_location_time ON poll_log (location, polled_at DESC);
`

// Store mirrors the poll audit log into Postgres.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Append(ctx context.Context, r *domain.PollRecord) error {
	if r.PolledAt.IsZero() {
		r.PolledAt = time.Now().UTC()
	}
	var statusPtr *int
	if r.StatusCode != 0 {
		statusPtr = &r.StatusCode
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO poll_log
		   (location, location_id, status_code, body, error, slot_count, latency_ms, polled_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(r.Location), r.LocationID, statusPtr, r.Body, r.Error, r.SlotCount, r.LatencyMS, r.PolledAt,
	)
	if err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}
	return nil
}

// CountSince reports how many polls of loc were mirrored since the given time.
func (s *Store) CountSince(ctx context.Context, loc domain.LocationCode, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM poll_log WHERE location = $1 AND polled_at >= $2`,
		string(loc), since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count polls: %w", err)
	}
	return n, nil
}
