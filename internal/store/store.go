// Package store persists extracted decision records. Record ids are derived
// from (source, content hash), so saving the same content twice is a no-op
// and re-ingestion is idempotent.
package store

import (
	"context"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// DecisionFilter specifies criteria for listing decisions. Zero values mean
// "no constraint".
type DecisionFilter struct {
	Source       model.SourceCategory `json:"source,omitempty"`
	Year         int                  `json:"year,omitempty"`
	Appraiser    string               `json:"appraiser,omitempty"`
	CaseType     string               `json:"case_type,omitempty"`
	TextContains string               `json:"text_contains,omitempty"`
	Limit        int                  `json:"limit,omitempty"`
	Offset       int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface consumed by the pipeline.
type Store interface {
	// SaveDecision inserts a decision. Returns false when a record with the
	// same derived id already exists (duplicate content).
	SaveDecision(ctx context.Context, d model.Decision) (bool, error)

	// GetDecision returns the record or nil when absent.
	GetDecision(ctx context.Context, id string) (*model.Decision, error)

	ListDecisions(ctx context.Context, f DecisionFilter) ([]model.Decision, error)

	// LastGood returns the decisions previously persisted for a
	// (source, page) coordinate, feeding the stale-data fallback strategy.
	LastGood(ctx context.Context, source model.SourceCategory, page int) ([]model.Decision, error)

	// SetDocText attaches extracted document text to a stored decision.
	SetDocText(ctx context.Context, id, text string) error

	// Ingest runs
	CreateIngestRun(ctx context.Context, source model.SourceCategory) (*model.IngestRun, error)
	FinishIngestRun(ctx context.Context, runID string, pages, saved, failed int, status string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
