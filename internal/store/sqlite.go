package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	pages       INTEGER NOT NULL DEFAULT 0,
	saved       INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_decisions_source_page ON decisions(source, page);
CREATE INDEX IF NOT EXISTS idx_decisions_year ON decisions(year);
CREATE INDEX IF NOT EXISTS idx_decisions_appraiser ON decisions(appraiser);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_source ON ingest_runs(source);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDecision(ctx context.Context, d model.Decision) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO decisions
			(id, source, page, title, url, block, plot, committee, appraiser,
			 case_type, decision_date, publish_date, year, content_hash, doc_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.Source), d.Page, d.Title, d.URL, d.Block, d.Plot,
		d.Committee, d.Appraiser, d.CaseType, d.DecisionDate, d.PublishDate,
		d.Year, d.ContentHash, d.DocText, d.CreatedAt.UTC(),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert decision %s", d.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

const decisionColumns = `id, source, page, title, url, block, plot, committee,
	appraiser, case_type, decision_date, publish_date, year, content_hash, doc_text, created_at`

func (s *SQLiteStore) GetDecision(ctx context.Context, id string) (*model.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get decision %s", id)
	}
	return d, nil
}

func (s *SQLiteStore) ListDecisions(ctx context.Context, f DecisionFilter) ([]model.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions`
	where, args := filterClauses(f, "?")
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list decisions")
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func (s *SQLiteStore) LastGood(ctx context.Context, source model.SourceCategory, page int) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE source = ? AND page = ? ORDER BY created_at DESC`,
		string(source), page)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: last good %s page %d", source, page)
	}
	defer rows.Close()
	return collectDecisions(rows)
}

func (s *SQLiteStore) SetDocText(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE decisions SET doc_text = ? WHERE id = ?`, text, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set doc text %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: decision not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) CreateIngestRun(ctx context.Context, source model.SourceCategory) (*model.IngestRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(source), model.RunStatusRunning, now)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ingest run")
	}
	return &model.IngestRun{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishIngestRun(ctx context.Context, runID string, pages, saved, failed int, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET pages = ?, saved = ?, failed = ?, status = ?, finished_at = ? WHERE id = ?`,
		pages, saved, failed, status, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish ingest run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: ingest run not found: %s", runID)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*model.Decision, error) {
	var d model.Decision
	var source string
	var url, block, plot, committee, appraiser, caseType sql.NullString
	var decisionDate, publishDate, docText sql.NullString
	var year sql.NullInt64

	err := row.Scan(&d.ID, &source, &d.Page, &d.Title, &url, &block, &plot,
		&committee, &appraiser, &caseType, &decisionDate, &publishDate,
		&year, &d.ContentHash, &docText, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	d.Source = model.SourceCategory(source)
	d.URL = url.String
	d.Block = block.String
	d.Plot = plot.String
	d.Committee = committee.String
	d.Appraiser = appraiser.String
	d.CaseType = caseType.String
	d.DecisionDate = decisionDate.String
	d.PublishDate = publishDate.String
	d.Year = int(year.Int64)
	d.DocText = docText.String
	return &d, nil
}

func collectDecisions(rows *sql.Rows) ([]model.Decision, error) {
	var out []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision row")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate decision rows")
	}
	return out, nil
}

// filterClauses builds WHERE clauses for a DecisionFilter. placeholder is
// "?" for SQLite; Postgres builds its own numbered placeholders.
func filterClauses(f DecisionFilter, placeholder string) ([]string, []any) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		where = append(where, clause+" "+placeholder)
		args = append(args, arg)
	}
	if f.Source != "" {
		add("source =", string(f.Source))
	}
	if f.Year != 0 {
		add("year =", f.Year)
	}
	if f.Appraiser != "" {
		add("appraiser =", f.Appraiser)
	}
	if f.CaseType != "" {
		add("case_type =", f.CaseType)
	}
	if f.TextContains != "" {
		add("doc_text LIKE", "%"+f.TextContains+"%")
	}
	return where, args
}
