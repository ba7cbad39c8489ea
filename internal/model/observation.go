package model

import "time"

// ValueObservation is one numeric value located near a search term inside a
// document. Offsets are rune positions within the document text.
type ValueObservation struct {
	Raw    string  `json:"raw"`
	Value  float64 `json:"value"`
	Offset int     `json:"offset"`
	Page   int     `json:"page"`
}

// AggregatedRow is one matched document in a value search: record
// identifiers plus the numeric observations and a short context snippet.
// Not persisted beyond the request.
type AggregatedRow struct {
	DecisionID string               `json:"decision_id"`
	Appraiser  string               `json:"appraiser,omitempty"`
	Block      string               `json:"block,omitempty"`
	Plot       string               `json:"plot,omitempty"`
	Year       int                  `json:"year,omitempty"`
	Values     map[string][]float64 `json:"values,omitempty"`
	Snippet    string               `json:"snippet,omitempty"`
}

// FieldStats holds robust statistics for one numeric field.
// Median is always computed from the full value set; mean/min/max exclude
// IQR outliers when enough values exist.
type FieldStats struct {
	Count           int     `json:"count"`
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	OutliersRemoved int     `json:"outliers_removed"`
}

// GroupCount is one grouping bucket with its row count.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SummaryStats is the aggregation result over an entire matching set.
// Totals and field statistics are independent of any bounded preview.
type SummaryStats struct {
	Total       int                   `json:"total"`
	Shown       int                   `json:"shown"`
	Fields      map[string]FieldStats `json:"fields,omitempty"`
	ByAppraiser []GroupCount          `json:"by_appraiser,omitempty"`
	ByYear      map[int]int           `json:"by_year,omitempty"`
}

// StrategyCount holds cumulative success/fail counters for one strategy.
type StrategyCount struct {
	Success int `json:"success"`
	Fail    int `json:"fail"`
}

// IngestRun records one page-by-page ingestion pass over a source.
type IngestRun struct {
	ID         string         `json:"id"`
	Source     SourceCategory `json:"source"`
	Pages      int            `json:"pages"`
	Saved      int            `json:"saved"`
	Failed     int            `json:"failed"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Ingest run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)
