// Package model defines the domain types shared across the extraction pipeline.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// SourceCategory identifies one published decision stream on the upstream site.
type SourceCategory string

const (
	// SourceDecisive is the decisive-appraiser decision stream, the dominant
	// category with the most structured titles.
	SourceDecisive SourceCategory = "decisive"
	// SourceAppeals is the appeals-committee decision stream.
	SourceAppeals SourceCategory = "appeals"
	// SourceCompensation is the expropriation-compensation decision stream.
	SourceCompensation SourceCategory = "compensation"
)

// AllSourceCategories returns all defined source categories.
func AllSourceCategories() []SourceCategory {
	return []SourceCategory{SourceDecisive, SourceAppeals, SourceCompensation}
}

// ParseSourceCategory validates a category name from user input.
func ParseSourceCategory(s string) (SourceCategory, error) {
	for _, c := range AllSourceCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", eris.Errorf("model: unknown source category %q", s)
}

// RawExtraction is one candidate result produced by a single parsing
// strategy. It is discarded once the strategy chain picks a winner and the
// result is normalized into a Decision.
type RawExtraction struct {
	Title       string
	URL         string
	PublishDate string

	// Structured fields a strategy could infer directly from markup.
	// Usually empty; the title parser fills the canonical fields.
	Block string
	Plot  string

	// Strategy is the name of the strategy that produced this result.
	Strategy string

	// Stale marks results replayed from previously persisted data.
	// Downstream consumers must not treat them as fresh.
	Stale bool
}

// ContentHash returns the deterministic fingerprint of the extraction's
// identifying text, used for dedup and idempotent re-ingestion.
func (r RawExtraction) ContentHash() string {
	sum := sha256.Sum256([]byte(r.Title + "|" + r.URL))
	return hex.EncodeToString(sum[:])
}

// TitleFields holds the structured fields recovered from a free-text title.
// Unmatched fields are empty strings, never invented.
type TitleFields struct {
	Block        string
	Plot         string
	Committee    string
	Appraiser    string
	CaseType     string
	DecisionDate string // DD-MM-YYYY
}

// Decision is the canonical structured record for one appraisal decision.
// Immutable once written; the ID is derived from (source, content hash) so
// re-ingesting identical content is idempotent.
type Decision struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	URL          string         `json:"url,omitempty"`
	Block        string         `json:"block,omitempty"`
	Plot         string         `json:"plot,omitempty"`
	Committee    string         `json:"committee,omitempty"`
	Appraiser    string         `json:"appraiser,omitempty"`
	CaseType     string         `json:"case_type,omitempty"`
	DecisionDate string         `json:"decision_date,omitempty"` // DD-MM-YYYY
	PublishDate  string         `json:"publish_date,omitempty"`
	Year         int            `json:"year,omitempty"`
	ContentHash  string         `json:"content_hash"`
	Source       SourceCategory `json:"source"`
	Page         int            `json:"page"`
	DocText      string         `json:"doc_text,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DecisionID derives the deterministic record id from the source category
// and the extraction's content hash.
func DecisionID(source SourceCategory, contentHash string) string {
	sum := sha256.Sum256([]byte(string(source) + "|" + contentHash))
	return hex.EncodeToString(sum[:16])
}

var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// DeriveYear extracts the decision year from a normalized DD-MM-YYYY date,
// falling back to the first plausible year in the publish date.
func DeriveYear(decisionDate, publishDate string) int {
	if len(decisionDate) == 10 {
		if y, err := strconv.Atoi(decisionDate[6:]); err == nil {
			return y
		}
	}
	if m := yearRe.FindString(publishDate); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

// NewDecision normalizes a winning extraction and its parsed title fields
// into the canonical record. Title-derived fields win over strategy-inferred
// ones when both are present.
func NewDecision(raw RawExtraction, fields TitleFields, source SourceCategory, page int) Decision {
	block := fields.Block
	if block == "" {
		block = raw.Block
	}
	plot := fields.Plot
	if plot == "" {
		plot = raw.Plot
	}

	hash := raw.ContentHash()
	return Decision{
		ID:           DecisionID(source, hash),
		Title:        raw.Title,
		URL:          raw.URL,
		Block:        block,
		Plot:         plot,
		Committee:    fields.Committee,
		Appraiser:    fields.Appraiser,
		CaseType:     fields.CaseType,
		DecisionDate: fields.DecisionDate,
		PublishDate:  raw.PublishDate,
		Year:         DeriveYear(fields.DecisionDate, raw.PublishDate),
		ContentHash:  hash,
		Source:       source,
		Page:         page,
		CreatedAt:    time.Now().UTC(),
	}
}
