package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/parse"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

// stubFetcher serves canned pages keyed by page number.
type stubFetcher struct {
	pages map[int][]byte
	errs  map[int]error
}

func (f *stubFetcher) FetchPage(_ context.Context, _ model.SourceCategory, page int) ([]byte, error) {
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	if doc, ok := f.pages[page]; ok {
		return doc, nil
	}
	return nil, errors.New("no such page")
}

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	decisions map[string]model.Decision
	runs      map[string]*model.IngestRun
	saveErr   error
	finished  bool
	status    string
}

func newMemStore() *memStore {
	return &memStore{
		decisions: map[string]model.Decision{},
		runs:      map[string]*model.IngestRun{},
	}
}

func (m *memStore) SaveDecision(_ context.Context, d model.Decision) (bool, error) {
	if m.saveErr != nil {
		return false, m.saveErr
	}
	if _, ok := m.decisions[d.ID]; ok {
		return false, nil
	}
	m.decisions[d.ID] = d
	return true, nil
}

func (m *memStore) GetDecision(_ context.Context, id string) (*model.Decision, error) {
	d, ok := m.decisions[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memStore) ListDecisions(_ context.Context, _ store.DecisionFilter) ([]model.Decision, error) {
	var out []model.Decision
	for _, d := range m.decisions {
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) LastGood(_ context.Context, _ model.SourceCategory, _ int) ([]model.Decision, error) {
	return nil, nil
}

func (m *memStore) SetDocText(_ context.Context, id, text string) error {
	d, ok := m.decisions[id]
	if !ok {
		return errors.New("not found")
	}
	d.DocText = text
	m.decisions[id] = d
	return nil
}

func (m *memStore) CreateIngestRun(_ context.Context, source model.SourceCategory) (*model.IngestRun, error) {
	run := &model.IngestRun{ID: "run-1", Source: source, Status: model.RunStatusRunning}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) FinishIngestRun(_ context.Context, runID string, _, _, _ int, status string) error {
	if _, ok := m.runs[runID]; !ok {
		return errors.New("no such run")
	}
	m.finished = true
	m.status = status
	return nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

// pagedStrategy extracts one row per page, titled by page number.
type pagedStrategy struct{}

func (pagedStrategy) Name() string { return "paged" }

func (pagedStrategy) Extract(_ context.Context, doc []byte, _ model.SourceCategory, page int) ([]model.RawExtraction, error) {
	if !bytes.Contains(doc, []byte("rows")) {
		return nil, nil
	}
	return []model.RawExtraction{{
		Title: fmt.Sprintf("החלטת שמאי מכריע מיום 1.1.2020 בעניין היטל השבחה - עמוד %d", page),
		URL:   fmt.Sprintf("https://example.gov.il/d%d.pdf", page),
	}}, nil
}

func pageDoc(marker string) []byte {
	return append(bytes.Repeat([]byte(" "), 512), []byte(marker)...)
}

func TestPipeline_Run(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]byte{
		1: pageDoc("rows"),
		2: pageDoc("rows"),
		3: pageDoc("empty"),
		4: pageDoc("empty"),
	}}
	st := newMemStore()
	chain := parse.NewChain(nil, pagedStrategy{})

	p := NewPipeline(fetcher, chain, st)
	res, err := p.Run(context.Background(), Options{Source: model.SourceDecisive, MaxPages: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 2, res.Extracted)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, st.decisions, 2)
	assert.True(t, st.finished)
	assert.Equal(t, model.RunStatusComplete, st.status)
}

func TestPipeline_Run_DuplicatesSkipped(t *testing.T) {
	// Pages one and two serve the same row, so the second save is a dup.
	fetcher := &stubFetcher{pages: map[int][]byte{
		1: pageDoc("rows"),
	}}
	st := newMemStore()
	chain := parse.NewChain(nil, pagedStrategy{})

	p := NewPipeline(fetcher, chain, st)
	res, err := p.Run(context.Background(), Options{Source: model.SourceDecisive, MaxPages: 1})
	require.NoError(t, err)
	require.Equal(t, 1, res.Saved)

	res2, err := p.Run(context.Background(), Options{Source: model.SourceDecisive, MaxPages: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res2.Saved)
	assert.Equal(t, 1, res2.Duplicates)
	assert.Len(t, st.decisions, 1)
}

func TestPipeline_Run_FetchFailureNotFatal(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[int][]byte{
			1: pageDoc("rows"),
			3: pageDoc("rows"),
			4: pageDoc("empty"),
			5: pageDoc("empty"),
		},
		errs: map[int]error{2: errors.New("gateway timeout")},
	}
	st := newMemStore()
	chain := parse.NewChain(nil, pagedStrategy{})

	p := NewPipeline(fetcher, chain, st)
	res, err := p.Run(context.Background(), Options{Source: model.SourceDecisive, MaxPages: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, model.RunStatusComplete, st.status)
}

func TestPipeline_Run_SaveErrorsCounted(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]byte{1: pageDoc("rows")}}
	st := newMemStore()
	st.saveErr = errors.New("disk full")
	chain := parse.NewChain(nil, pagedStrategy{})

	p := NewPipeline(fetcher, chain, st)
	res, err := p.Run(context.Background(), Options{Source: model.SourceDecisive, MaxPages: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Saved)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, model.RunStatusFailed, st.status)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]byte{1: pageDoc("rows")}}
	st := newMemStore()
	chain := parse.NewChain(nil, pagedStrategy{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(fetcher, chain, st)
	_, err := p.Run(ctx, Options{Source: model.SourceDecisive, MaxPages: 5})
	require.Error(t, err)
	assert.True(t, st.finished, "run bookkeeping still recorded on cancel")
	assert.Equal(t, model.RunStatusFailed, st.status)
}
