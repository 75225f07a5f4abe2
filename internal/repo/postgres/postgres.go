package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/domain"
	"github.com/hamed0406/storecheck/internal/repo"
)

var _ repo.ReportStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema holds the bookkeeping tables of the checker itself. It does not
// touch the probed table.
const Schema = `
CREATE TABLE IF NOT EXISTS storecheck_reports (
  id          TEXT PRIMARY KEY,
  target      TEXT NOT NULL,
  table_name  TEXT NOT NULL,
  healthy     BOOLEAN NOT NULL,
  failure     TEXT NOT NULL DEFAULT '',
  probe_key   TEXT NOT NULL DEFAULT '',
  steps       JSONB NOT NULL,
  started_at  TIMESTAMPTZ NOT NULL,
  finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_storecheck_reports_finished ON storecheck_reports (finished_at DESC);

CREATE TABLE IF NOT EXISTS storecheck_alerts (
  key          TEXT PRIMARY KEY,
  last_state   BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

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
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the bookkeeping tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- ReportStore ----

func (s *Store) Append(ctx context.Context, r *domain.Report) error {
	steps, err := json.Marshal(r.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO storecheck_reports
		   (id, target, table_name, healthy, failure, probe_key, steps, started_at, finished_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Target, r.Table, r.Healthy, r.Failure, r.ProbeKey, string(steps), r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	s.log.Debug("report_stored", zap.String("id", r.ID), zap.Bool("healthy", r.Healthy))
	return nil
}

const reportColumns = `id, target, table_name, healthy, failure, probe_key, steps, started_at, finished_at`

func (s *Store) Latest(ctx context.Context) (*domain.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reportColumns+`
		   FROM storecheck_reports
		  ORDER BY finished_at DESC
		  LIMIT 1`)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest report: %w", err)
	}
	return r, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+reportColumns+`
		   FROM storecheck_reports
		  ORDER BY finished_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		r     domain.Report
		steps []byte
	)
	if err := row.Scan(&r.ID, &r.Target, &r.Table, &r.Healthy, &r.Failure, &r.ProbeKey, &steps, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &r.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return &r, nil
}
