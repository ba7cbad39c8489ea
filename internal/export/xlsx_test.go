package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

func TestDecisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.xlsx")
	decisions := []model.Decision{
		{
			ID:           "abc",
			Source:       model.SourceDecisive,
			Title:        "החלטת שמאי מכריע",
			Block:        "6205",
			Plot:         "112",
			Appraiser:    "ישראל לוי",
			CaseType:     "היטל השבחה",
			DecisionDate: "15-03-2021",
			Year:         2021,
			URL:          "https://example.gov.il/abc.pdf",
		},
	}

	require.NoError(t, Decisions(path, decisions))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet["decisions"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 2)

	header := sheet.Rows[0]
	assert.Equal(t, "מזהה", header.Cells[0].String())

	row := sheet.Rows[1]
	assert.Equal(t, "abc", row.Cells[0].String())
	assert.Equal(t, "decisive", row.Cells[1].String())
	assert.Equal(t, "6205", row.Cells[3].String())
	assert.Equal(t, "2021", row.Cells[9].String())
}

func TestDecisions_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, Decisions(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheet["decisions"].Rows, 1, "header only")
}

func TestSearchResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.xlsx")
	rows := []model.AggregatedRow{
		{
			DecisionID: "d1",
			Appraiser:  "רות כהן",
			Block:      "6205",
			Plot:       "112",
			Year:       2021,
			Values:     map[string][]float64{"מקדם": {0.85, 1.2}},
			Snippet:    "מקדם 0,85 לשווי",
		},
	}
	stats := model.SummaryStats{
		Total: 1,
		Shown: 1,
		Fields: map[string]model.FieldStats{
			"מקדם": {Count: 2, Mean: 1.025, Median: 1.025, Min: 0.85, Max: 1.2},
		},
	}

	require.NoError(t, SearchResult(path, rows, stats))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	rowSheet, ok := f.Sheet["rows"]
	require.True(t, ok)
	require.Len(t, rowSheet.Rows, 2)
	assert.Contains(t, rowSheet.Rows[1].Cells[5].String(), "0.85")

	statSheet, ok := f.Sheet["summary"]
	require.True(t, ok)
	require.Len(t, statSheet.Rows, 2)
	assert.Equal(t, "מקדם", statSheet.Rows[1].Cells[0].String())
	assert.Equal(t, "1.025", statSheet.Rows[1].Cells[2].String())
}
