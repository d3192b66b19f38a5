package evaluation

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"perfvoi/internal/models"
)

// SummaryHeader names the columns written by WriteSummary
var SummaryHeader = []string{"column", "n", "mean", "std", "median", "min", "max"}

// ColumnSummary holds descriptive statistics of the valid cells of one
// wide-table column
type ColumnSummary struct {
	Column string
	N      int
	Mean   float64
	// StdDev is the sample standard deviation, NaN for fewer than two cells
	StdDev float64
	// Median is the empirical 50th percentile
	Median float64
	Min    float64
	Max    float64
}

// Describe summarizes every column of wide in column order. Empty cells
// are skipped; a column without values has N == 0 and NaN statistics.
func Describe(wide *models.WideTable) []ColumnSummary {
	out := make([]ColumnSummary, len(wide.Columns))
	for j, name := range wide.Columns {
		xs := make([]float64, 0, len(wide.Rows))
		for _, row := range wide.Rows {
			if c := row.Cells[j]; c.Valid {
				xs = append(xs, c.Value)
			}
		}

		s := ColumnSummary{Column: name, N: len(xs)}
		if len(xs) == 0 {
			nan := math.NaN()
			s.Mean, s.StdDev, s.Median, s.Min, s.Max = nan, nan, nan, nan, nan
			out[j] = s
			continue
		}
		sort.Float64s(xs)
		s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
		s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
		s.Min, s.Max = floats.Min(xs), floats.Max(xs)
		out[j] = s
	}
	return out
}

// WriteSummary writes one row per column summary
func WriteSummary(w io.Writer, summaries []ColumnSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		rec := []string{
			s.Column, strconv.Itoa(s.N),
			number(s.Mean), number(s.StdDev), number(s.Median), number(s.Min), number(s.Max),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
