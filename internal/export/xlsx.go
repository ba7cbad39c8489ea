// Package export writes decision records and search results to XLSX
// workbooks for the appraisers who live in spreadsheets.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

var decisionHeader = []string{
	"מזהה", "מקור", "כותרת", "גוש", "חלקה", "ועדה", "שמאי",
	"סוג הליך", "תאריך החלטה", "שנה", "קישור",
}

// Decisions writes one workbook with a row per decision.
func Decisions(path string, decisions []model.Decision) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("decisions")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeRow(sheet, decisionHeader...)
	for _, d := range decisions {
		writeRow(sheet,
			d.ID, string(d.Source), d.Title, d.Block, d.Plot, d.Committee,
			d.Appraiser, d.CaseType, d.DecisionDate,
			intCell(d.Year), d.URL)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// SearchResult writes two sheets: matched rows with their extracted values,
// and a summary sheet with the per-field statistics.
func SearchResult(path string, rows []model.AggregatedRow, stats model.SummaryStats) error {
	f := xlsx.NewFile()

	rowSheet, err := f.AddSheet("rows")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	writeRow(rowSheet, "מזהה", "שמאי", "גוש", "חלקה", "שנה", "ערכים", "הקשר")
	for _, r := range rows {
		writeRow(rowSheet,
			r.DecisionID, r.Appraiser, r.Block, r.Plot, intCell(r.Year),
			formatValues(r.Values), r.Snippet)
	}

	statSheet, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	writeRow(statSheet, "שדה", "מספר", "ממוצע", "חציון", "מינימום", "מקסימום", "חריגים שהוסרו")
	for field, fs := range stats.Fields {
		writeRow(statSheet, field,
			intCell(fs.Count), floatCell(fs.Mean), floatCell(fs.Median),
			floatCell(fs.Min), floatCell(fs.Max), intCell(fs.OutliersRemoved))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func intCell(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}

func floatCell(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func formatValues(values map[string][]float64) string {
	var parts []string
	for field, vals := range values {
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = floatCell(v)
		}
		parts = append(parts, field+": "+strings.Join(strs, ", "))
	}
	return strings.Join(parts, "; ")
}
