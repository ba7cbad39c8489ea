package parse

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// DefaultMinDocSize is the smallest document, in bytes, worth running the
// chain against. Anything shorter is a truncated or error page.
const DefaultMinDocSize = 256

// Chain tries strategies in priority order and returns the first non-empty
// result set. Per-strategy success/fail counters and the last winning
// strategy are observable; primary-strategy health feeds the monitor.
type Chain struct {
	strategies []Strategy
	monitor    *HealthMonitor
	minDocSize int

	mu         sync.Mutex
	stats      map[string]*model.StrategyCount
	lastWinner string
}

// NewChain creates a Chain with the given monitor and strategies. The first
// strategy is the primary: the most trusted, and the one whose consecutive
// failures raise the health alert.
func NewChain(monitor *HealthMonitor, strategies ...Strategy) *Chain {
	if monitor == nil {
		monitor = NewHealthMonitor(DefaultFailureThreshold, nil)
	}
	return &Chain{
		strategies: strategies,
		monitor:    monitor,
		minDocSize: DefaultMinDocSize,
		stats:      make(map[string]*model.StrategyCount),
	}
}

// WithMinDocSize overrides the malformed-document threshold.
func (c *Chain) WithMinDocSize(n int) *Chain {
	c.minDocSize = n
	return c
}

// Parse runs the strategy chain over one page document. All strategies
// exhausting is logged as a hard failure and yields an empty list; a single
// strategy failing is routine and only recorded.
func (c *Chain) Parse(ctx context.Context, doc []byte, source model.SourceCategory, page int) []model.RawExtraction {
	if len(doc) < c.minDocSize {
		// Not a real page; don't burn every strategy against garbage, and
		// don't count it against the primary strategy's health.
		zap.L().Warn("parse: document too short, skipping strategy chain",
			zap.Int("bytes", len(doc)),
			zap.Int("min_bytes", c.minDocSize),
			zap.String("source", string(source)),
			zap.Int("page", page),
		)
		return nil
	}

	for i, s := range c.strategies {
		items, err := s.Extract(ctx, doc, source, page)
		if err == nil && len(items) > 0 {
			c.record(s.Name(), true)
			if i == 0 {
				c.monitor.RecordSuccess()
			}
			c.mu.Lock()
			c.lastWinner = s.Name()
			c.mu.Unlock()
			return items
		}

		c.record(s.Name(), false)
		if i == 0 {
			c.monitor.RecordFailure(source, page)
		}
		if err != nil {
			zap.L().Debug("parse: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("source", string(source)),
				zap.Int("page", page),
				zap.Error(err),
			)
		}
	}

	zap.L().Error("parse: all strategies exhausted",
		zap.String("source", string(source)),
		zap.Int("page", page),
		zap.Int("strategies", len(c.strategies)),
	)
	return nil
}

// Monitor returns the chain's health monitor.
func (c *Chain) Monitor() *HealthMonitor {
	return c.monitor
}

// LastWinner returns the name of the strategy that produced the most recent
// successful parse, or "" if none has succeeded yet.
func (c *Chain) LastWinner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastWinner
}

// Stats returns a snapshot of per-strategy cumulative counters.
func (c *Chain) Stats() map[string]model.StrategyCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.StrategyCount, len(c.stats))
	for name, sc := range c.stats {
		out[name] = *sc
	}
	return out
}

// ResetStats clears all per-strategy counters. Operator action only.
func (c *Chain) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]*model.StrategyCount)
	c.lastWinner = ""
}

func (c *Chain) record(name string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.stats[name]
	if !ok {
		sc = &model.StrategyCount{}
		c.stats[name] = sc
	}
	if success {
		sc.Success++
	} else {
		sc.Fail++
	}
}
