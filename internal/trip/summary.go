package trip

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatNames is the fixed statistic order of a SummaryTable. Feature columns
// derived from a summary follow this order.
var StatNames = []string{"per_missing", "mean", "std", "min", "max", "median", "iqr"}

// FieldSummary holds the descriptive statistics for one resampled column.
// For a column with no observed values, PerMissing is 100 and every other
// statistic is NaN.
type FieldSummary struct {
	PerMissing float64
	Mean       float64
	Std        float64
	Min        float64
	Max        float64
	Median     float64
	IQR        float64
}

// Stat returns the named statistic. Unknown names return NaN.
func (f FieldSummary) Stat(name string) float64 {
	switch name {
	case "per_missing":
		return f.PerMissing
	case "mean":
		return f.Mean
	case "std":
		return f.Std
	case "min":
		return f.Min
	case "max":
		return f.Max
	case "median":
		return f.Median
	case "iqr":
		return f.IQR
	default:
		return math.NaN()
	}
}

// SummaryTable is a per-trip summary: one row per resampled column, one
// column per statistic. The row set equals the resampled column set.
type SummaryTable struct {
	Fields []string
	Rows   map[string]FieldSummary
}

// Summarizer computes descriptive statistics over a resampled trip.
type Summarizer struct {
	cleaner  *Cleaner
	summary  *SummaryTable
	duration time.Duration
	done     bool
}

// NewSummarizer creates a Summarizer over a cleaned trip.
func NewSummarizer(c *Cleaner) *Summarizer {
	return &Summarizer{cleaner: c}
}

// Calculate resamples the cleaned trip onto the given interval and computes,
// per column: fraction of missing buckets, mean, sample standard deviation,
// min, max, median and interquartile range, plus the trip duration (last
// resampled timestamp minus first). It must run before the accessors.
func (s *Summarizer) Calculate(interval time.Duration, interpolateMissing bool) error {
	rs, err := s.cleaner.Resample(interval, interpolateMissing)
	if err != nil {
		return fmt.Errorf("failed to resample trip: %w", err)
	}

	s.duration = 0
	if rs.Len() > 0 {
		s.duration = rs.Times[rs.Len()-1].Sub(rs.Times[0])
	}

	table := &SummaryTable{
		Fields: append([]string(nil), rs.Fields...),
		Rows:   make(map[string]FieldSummary, len(rs.Fields)),
	}
	for _, f := range rs.Fields {
		table.Rows[f] = summarizeColumn(rs.Column(f))
	}

	s.summary = table
	s.done = true
	return nil
}

// SummaryTable returns the computed summary. It fails with ErrNotCalculated
// until Calculate has run.
func (s *Summarizer) SummaryTable() (*SummaryTable, error) {
	if !s.done {
		return nil, ErrNotCalculated
	}
	return s.summary, nil
}

// Duration returns the trip duration computed by Calculate: the span of the
// resampled index. The value is a time.Duration, not an accessor reference.
func (s *Summarizer) Duration() (time.Duration, error) {
	if !s.done {
		return 0, ErrNotCalculated
	}
	return s.duration, nil
}

// FormatDuration renders a duration as HH:MM:SS for trip reports.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// summarizeColumn computes the per-column statistics over the resampled
// buckets. Missing buckets count toward per_missing and are excluded from
// the remaining statistics.
func summarizeColumn(xs []float64) FieldSummary {
	out := FieldSummary{
		PerMissing: 100,
		Mean:       math.NaN(),
		Std:        math.NaN(),
		Min:        math.NaN(),
		Max:        math.NaN(),
		Median:     math.NaN(),
		IQR:        math.NaN(),
	}
	if len(xs) == 0 {
		return out
	}

	present := dropNaN(xs)
	out.PerMissing = (1 - float64(len(present))/float64(len(xs))) * 100
	if len(present) == 0 {
		return out
	}

	out.Mean = stat.Mean(present, nil)
	out.Min = floats.Min(present)
	out.Max = floats.Max(present)

	if len(present) > 1 {
		out.Std = stat.StdDev(present, nil)
	} else {
		out.Std = math.NaN()
	}

	sorted := make([]float64, len(present))
	copy(sorted, present)
	sort.Float64s(sorted)
	out.Median = quantile(0.5, sorted)
	out.IQR = quantile(0.75, sorted) - quantile(0.25, sorted)

	return out
}
