package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/parse"
	"github.com/nadlan-labs/shuma-cli/internal/search"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

// fakeStore backs handler tests with canned decisions.
type fakeStore struct {
	decisions []model.Decision
	listErr   error
}

func (s *fakeStore) ListDecisions(context.Context, store.DecisionFilter) ([]model.Decision, error) {
	return s.decisions, s.listErr
}
func (s *fakeStore) SaveDecision(context.Context, model.Decision) (bool, error) {
	return false, errors.New("not implemented")
}
func (s *fakeStore) GetDecision(context.Context, string) (*model.Decision, error) {
	return nil, nil
}
func (s *fakeStore) LastGood(context.Context, model.SourceCategory, int) ([]model.Decision, error) {
	return nil, nil
}
func (s *fakeStore) SetDocText(context.Context, string, string) error { return nil }
func (s *fakeStore) CreateIngestRun(context.Context, model.SourceCategory) (*model.IngestRun, error) {
	return nil, errors.New("not implemented")
}
func (s *fakeStore) FinishIngestRun(context.Context, string, int, int, int, string) error {
	return nil
}
func (s *fakeStore) Migrate(context.Context) error { return nil }
func (s *fakeStore) Close() error                  { return nil }

func TestHandleHealth(t *testing.T) {
	chain := parse.NewChain(nil, parse.StructuralStrategy{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handleHealth(chain)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status      string `json:"status"`
		AlertActive bool   `json:"alert_active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.AlertActive)
}

func TestHandleSearch(t *testing.T) {
	svc := search.NewService(&fakeStore{decisions: []model.Decision{
		{ID: "d1", Year: 2021, DocText: "מקדם 0,85 לשווי"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/search?term=מקדם", nil)
	rec := httptest.NewRecorder()
	handleSearch(svc)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []float64{0.85}, res.Rows[0].Values["מקדם"])
	assert.Equal(t, 1, res.Stats.Total)
}

func TestHandleSearch_MissingTerm(t *testing.T) {
	svc := search.NewService(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	handleSearch(svc)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch_BadSource(t *testing.T) {
	svc := search.NewService(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?term=x&source=bogus", nil)
	rec := httptest.NewRecorder()
	handleSearch(svc)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	st := &fakeStore{decisions: []model.Decision{{ID: "a"}, {ID: "b"}}}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	handleStats(st)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["total"])
}

func TestIntParam(t *testing.T) {
	assert.Equal(t, 0, intParam(""))
	assert.Equal(t, 0, intParam("abc"))
	assert.Equal(t, 42, intParam("42"))
}
