// Package stats aggregates extracted rows into robust summary statistics.
package stats

import (
	"math"
	"sort"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

const (
	// minOutlierSample is the minimum raw value count before IQR outlier
	// removal applies.
	minOutlierSample = 5

	// topAppraisers bounds the by-appraiser grouping.
	topAppraisers = 10

	iqrFence = 1.5
)

// Summarize computes grouped counts and robust numeric statistics over the
// entire row set. It never fails: empty input yields zero counts. Rows
// shown in a bounded preview are the caller's concern; everything here is
// computed over all rows.
func Summarize(rows []model.AggregatedRow, fields []string) model.SummaryStats {
	s := model.SummaryStats{
		Total:  len(rows),
		Shown:  len(rows),
		ByYear: make(map[int]int),
	}

	appraisers := make(map[string]int)
	for _, r := range rows {
		if r.Appraiser != "" {
			appraisers[r.Appraiser]++
		}
		if r.Year != 0 {
			s.ByYear[r.Year]++
		}
	}
	s.ByAppraiser = topN(appraisers, topAppraisers)

	if len(fields) > 0 {
		s.Fields = make(map[string]model.FieldStats, len(fields))
		for _, f := range fields {
			var vals []float64
			for _, r := range rows {
				for _, v := range r.Values[f] {
					if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
						continue
					}
					vals = append(vals, v)
				}
			}
			s.Fields[f] = fieldStats(vals)
		}
	}

	return s
}

// fieldStats computes count, mean, median, min, max for one field. With at
// least minOutlierSample values, mean/min/max exclude values outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR]; the median always comes from the unfiltered
// sorted set.
func fieldStats(vals []float64) model.FieldStats {
	fs := model.FieldStats{Count: len(vals)}
	if len(vals) == 0 {
		return fs
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	fs.Median = median(sorted)

	kept := sorted
	if len(sorted) >= minOutlierSample {
		q1 := median(sorted[:len(sorted)/2])
		q3 := median(sorted[(len(sorted)+1)/2:])
		iqr := q3 - q1
		lo, hi := q1-iqrFence*iqr, q3+iqrFence*iqr

		kept = make([]float64, 0, len(sorted))
		for _, v := range sorted {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		fs.OutliersRemoved = len(sorted) - len(kept)
	}

	fs.Min = kept[0]
	fs.Max = kept[len(kept)-1]
	var sum float64
	for _, v := range kept {
		sum += v
	}
	fs.Mean = sum / float64(len(kept))
	return fs
}

// median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func topN(counts map[string]int, n int) []model.GroupCount {
	out := make([]model.GroupCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, model.GroupCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
