package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS decisions (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	page          INTEGER NOT NULL,
	title         TEXT NOT NULL,
	url           TEXT,
	block         TEXT,
	plot          TEXT,
	committee     TEXT,
	appraiser     TEXT,
	case_type     TEXT,
	decision_date TEXT,
	publish_date  TEXT,
	year          INTEGER,
	content_hash  TEXT NOT NULL,
	doc_text      TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source      TEXT NOT NULL,
	pages       INTEGER NOT NULL DEFAULT 0,
	saved       INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_decisions_source_page ON decisions(source, page);
CREATE INDEX IF NOT EXISTS idx_decisions_year ON decisions(year);
CREATE INDEX IF NOT EXISTS idx_decisions_appraiser ON decisions(appraiser);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_source ON ingest_runs(source);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveDecision(ctx context.Context, d model.Decision) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO decisions
			(id, source, page, title, url, block, plot, committee, appraiser,
			 case_type, decision_date, publish_date, year, content_hash, doc_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING`,
		d.ID, string(d.Source), d.Page, d.Title, d.URL, d.Block, d.Plot,
		d.Committee, d.Appraiser, d.CaseType, d.DecisionDate, d.PublishDate,
		d.Year, d.ContentHash, d.DocText, d.CreatedAt.UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert decision %s", d.ID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, id string) (*model.Decision, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = $1`, id)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get decision %s", id)
	}
	return d, nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, f DecisionFilter) ([]model.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions`
	where, args := pgFilterClauses(f)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year DESC, created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if f.Offset > 0 {
			args = append(args, f.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list decisions")
	}
	defer rows.Close()
	return collectPgxDecisions(rows)
}

func (s *PostgresStore) LastGood(ctx context.Context, source model.SourceCategory, page int) ([]model.Decision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE source = $1 AND page = $2 ORDER BY created_at DESC`,
		string(source), page)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: last good %s page %d", source, page)
	}
	defer rows.Close()
	return collectPgxDecisions(rows)
}

func (s *PostgresStore) SetDocText(ctx context.Context, id, text string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE decisions SET doc_text = $1 WHERE id = $2`, text, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set doc text %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: decision not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateIngestRun(ctx context.Context, source model.SourceCategory) (*model.IngestRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, source, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, string(source), model.RunStatusRunning, now)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert ingest run")
	}
	return &model.IngestRun{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishIngestRun(ctx context.Context, runID string, pages, saved, failed int, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET pages = $1, saved = $2, failed = $3, status = $4, finished_at = $5 WHERE id = $6`,
		pages, saved, failed, status, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish ingest run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: ingest run not found: %s", runID)
	}
	return nil
}

func collectPgxDecisions(rows pgx.Rows) ([]model.Decision, error) {
	var out []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan decision row")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate decision rows")
	}
	return out, nil
}

func pgFilterClauses(f DecisionFilter) ([]string, []any) {
	var where []string
	var args []any
	add := func(column, op string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}
	if f.Source != "" {
		add("source", "=", string(f.Source))
	}
	if f.Year != 0 {
		add("year", "=", f.Year)
	}
	if f.Appraiser != "" {
		add("appraiser", "=", f.Appraiser)
	}
	if f.CaseType != "" {
		add("case_type", "=", f.CaseType)
	}
	if f.TextContains != "" {
		add("doc_text", "LIKE", "%"+f.TextContains+"%")
	}
	return where, args
}
