package parse

import (
	"fmt"
	"sync"
	"time"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// DefaultFailureThreshold is the consecutive primary-strategy failure count
// that triggers an alert.
const DefaultFailureThreshold = 3

// Alert describes a sustained primary-strategy failure. It signals an
// operator-actionable systemic problem (the source's markup has likely
// changed) rather than a per-document issue.
type Alert struct {
	ConsecutiveFailures int                  `json:"consecutive_failures"`
	Threshold           int                  `json:"threshold"`
	Source              model.SourceCategory `json:"source"`
	Page                int                  `json:"page"`
	Message             string               `json:"message"`
	Timestamp           time.Time            `json:"timestamp"`
}

// AlertSink receives health alerts.
type AlertSink interface {
	Send(Alert)
}

// HealthMonitor tracks consecutive failures of the primary strategy across
// calls and fires a single debounced alert when the threshold is reached.
// The armed/disarmed pair is an explicit state machine: once fired, the
// alert stays silent until a primary success resets the counter and re-arms
// it.
type HealthMonitor struct {
	mu        sync.Mutex
	threshold int
	sink      AlertSink

	consecutive int
	fired       bool
	lastSource  model.SourceCategory
	lastPage    int

	nowFunc func() time.Time
}

// NewHealthMonitor creates a monitor with the given threshold and sink.
// A non-positive threshold falls back to DefaultFailureThreshold; a nil
// sink disables delivery but keeps the counters.
func NewHealthMonitor(threshold int, sink AlertSink) *HealthMonitor {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &HealthMonitor{
		threshold: threshold,
		sink:      sink,
		nowFunc:   time.Now,
	}
}

// RecordFailure notes one primary-strategy failure at (source, page) and
// fires the alert when the streak reaches the threshold.
func (h *HealthMonitor) RecordFailure(source model.SourceCategory, page int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.consecutive++
	h.lastSource = source
	h.lastPage = page

	if h.consecutive < h.threshold || h.fired {
		return
	}
	h.fired = true

	if h.sink == nil {
		return
	}
	h.sink.Send(Alert{
		ConsecutiveFailures: h.consecutive,
		Threshold:           h.threshold,
		Source:              source,
		Page:                page,
		Message: fmt.Sprintf(
			"primary strategy failed %d consecutive times (threshold %d) at %s page %d; source markup has likely changed",
			h.consecutive, h.threshold, source, page,
		),
		Timestamp: h.nowFunc().UTC(),
	})
}

// RecordSuccess resets the failure streak and re-arms the alert.
func (h *HealthMonitor) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive = 0
	h.fired = false
}

// ConsecutiveFailures returns the current primary-failure streak.
func (h *HealthMonitor) ConsecutiveFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutive
}

// AlertActive reports whether the alert has fired and not yet been cleared
// by a primary success.
func (h *HealthMonitor) AlertActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}
