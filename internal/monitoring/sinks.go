// Package monitoring delivers extraction health alerts to operators.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/parse"
)

// LogSink writes alerts to the process log. It is the fallback sink when no
// webhook is configured.
type LogSink struct{}

func (LogSink) Send(a parse.Alert) {
	zap.L().Error("extraction health alert",
		zap.String("component", "monitoring"),
		zap.String("source", string(a.Source)),
		zap.Int("page", a.Page),
		zap.Int("consecutive_failures", a.ConsecutiveFailures),
		zap.Int("threshold", a.Threshold),
		zap.String("message", a.Message),
	)
}

// webhookPayload is the JSON body posted to the webhook URL.
type webhookPayload struct {
	Type      string         `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// WebhookSink posts alerts to an HTTP endpoint. Delivery failures are
// logged, never propagated; an alert must not break the ingest loop.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Send(a parse.Alert) {
	if s.url == "" {
		return
	}
	if err := s.post(a); err != nil {
		zap.L().Error("alert webhook delivery failed",
			zap.String("component", "monitoring"),
			zap.String("source", string(a.Source)),
			zap.Error(err),
		)
		return
	}
	zap.L().Info("alert webhook delivered",
		zap.String("component", "monitoring"),
		zap.String("source", string(a.Source)),
		zap.Int("page", a.Page),
	)
}

func (s *WebhookSink) post(a parse.Alert) error {
	payload, err := json.Marshal(webhookPayload{
		Type:     "extraction_failure",
		Severity: "high",
		Message:  a.Message,
		Details: map[string]any{
			"source":               string(a.Source),
			"page":                 a.Page,
			"consecutive_failures": a.ConsecutiveFailures,
			"threshold":            a.Threshold,
		},
		Timestamp: a.Timestamp,
	})
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// MultiSink fans an alert out to several sinks.
type MultiSink []parse.AlertSink

func (m MultiSink) Send(a parse.Alert) {
	for _, s := range m {
		s.Send(a)
	}
}
