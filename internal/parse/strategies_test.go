package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

const gridHTML = `<html><body>
<table id="resultsGrid">
  <tr class="headerRow"><th>כותרת</th><th>תאריך פרסום</th></tr>
  <tr class="resultRow">
    <td class="title"><a href="/decisions/1.pdf">החלטת שמאי מכריע מיום 15.3.2021 בעניין היטל השבחה - גוש 6205 חלקה 112</a></td>
    <td class="publishDate">01/04/2021</td>
  </tr>
  <tr class="resultRowAlt">
    <td class="title"><a href="/decisions/2.pdf">החלטה בעניין ירידת ערך - גוש 7050 חלקה 3</a></td>
    <td class="publishDate">02/04/2021</td>
  </tr>
</table>
</body></html>`

// renamedHTML simulates a markup change: same shape, different classes.
const renamedHTML = `<html><body>
<table class="newResultsTable">
  <tr><td><a href="/decisions/9.pdf">החלטת שמאי מכריע בעניין דמי היתר</a></td><td>05/06/2022</td></tr>
</table>
</body></html>`

const looseHTML = `<html><body>
<div class="content">
  <p><a href="/files/abc.pdf">החלטה בעניין היטל השבחה גוש 100</a></p>
  <p><a href="/about">אודות</a></p>
</div>
</body></html>`

func TestStructuralStrategy(t *testing.T) {
	items, err := StructuralStrategy{}.Extract(context.Background(), []byte(gridHTML), model.SourceDecisive, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "/decisions/1.pdf", items[0].URL)
	assert.Contains(t, items[0].Title, "שמאי מכריע")
	assert.Equal(t, "01/04/2021", items[0].PublishDate)
	assert.Equal(t, "structural", items[0].Strategy)
	assert.False(t, items[0].Stale)
}

func TestStructuralStrategy_RenamedClassesFindNothing(t *testing.T) {
	items, err := StructuralStrategy{}.Extract(context.Background(), []byte(renamedHTML), model.SourceDecisive, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPathStrategy_SurvivesRenamedClasses(t *testing.T) {
	items, err := PathStrategy{}.Extract(context.Background(), []byte(renamedHTML), model.SourceDecisive, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "/decisions/9.pdf", items[0].URL)
	assert.Equal(t, "05/06/2022", items[0].PublishDate)
	assert.Equal(t, "path", items[0].Strategy)
}

func TestLooseStrategy_AttributeFragments(t *testing.T) {
	items, err := LooseStrategy{}.Extract(context.Background(), []byte(looseHTML), model.SourceDecisive, 1)
	require.NoError(t, err)
	require.Len(t, items, 1, "non-Hebrew-titled or non-document anchors are skipped")

	assert.Equal(t, "/files/abc.pdf", items[0].URL)
	assert.Empty(t, items[0].PublishDate)
}

func TestRawTextStrategy_NoDOMAssumptions(t *testing.T) {
	// Broken markup that no DOM parser renders into a usable tree.
	doc := []byte(`<table><tr><td junk <a href="/d/7.pdf">החלטת  שמאי   מכריע בעניין פיצויים</a> more junk`)

	items, err := RawTextStrategy{}.Extract(context.Background(), doc, model.SourceDecisive, 4)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "/d/7.pdf", items[0].URL)
	assert.Equal(t, "החלטת שמאי מכריע בעניין פיצויים", items[0].Title, "whitespace collapsed")
	assert.Equal(t, "rawtext", items[0].Strategy)
}

func TestRawTextStrategy_NoMarkers(t *testing.T) {
	items, err := RawTextStrategy{}.Extract(context.Background(), []byte(`<a href="/x">plain link</a>`), model.SourceDecisive, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// stubRecaller implements Recaller.
type stubRecaller struct {
	decisions []model.Decision
	err       error
}

func (s stubRecaller) LastGood(_ context.Context, _ model.SourceCategory, _ int) ([]model.Decision, error) {
	return s.decisions, s.err
}

func TestLastGoodStrategy_FlagsStale(t *testing.T) {
	st := LastGoodStrategy{Store: stubRecaller{decisions: []model.Decision{{
		Title:       "החלטה ישנה",
		URL:         "/old.pdf",
		PublishDate: "01/01/2020",
		Block:       "123",
		Plot:        "4",
	}}}}

	items, err := st.Extract(context.Background(), nil, model.SourceDecisive, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.True(t, items[0].Stale, "replayed data must be flagged stale")
	assert.Equal(t, "lastgood", items[0].Strategy)
	assert.Equal(t, "123", items[0].Block)
}

func TestLastGoodStrategy_ErrorsAndEmpties(t *testing.T) {
	_, err := LastGoodStrategy{Store: stubRecaller{err: errors.New("db down")}}.
		Extract(context.Background(), nil, model.SourceDecisive, 1)
	assert.Error(t, err)

	items, err := LastGoodStrategy{}.Extract(context.Background(), nil, model.SourceDecisive, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}
