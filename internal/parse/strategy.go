// Package parse extracts decision listings from raw page markup through a
// chain of strategies ordered by precision: strict structural matchers go
// first, looser shape- and attribute-based matchers follow, and a raw-text
// pattern matcher plus a stale-data replay close the chain. Each strategy is
// independently swappable and assumes nothing about the others.
package parse

import (
	"context"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// Strategy is one self-contained extraction algorithm tried by the Chain.
// A strategy that finds nothing returns an empty slice; that is routine and
// recorded, not an error condition.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc []byte, source model.SourceCategory, page int) ([]model.RawExtraction, error)
}
