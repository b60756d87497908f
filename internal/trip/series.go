package trip

import (
	"math"
	"time"
)

// MissingSentinel is the fixed numeric constant used by the CATS hardware to
// indicate "no reading". The cleaner replaces every occurrence with NaN.
const MissingSentinel = 8388607.0

// MergedCountColumn is the diagnostic column recording how many raw rows were
// merged into each cleaned second.
const MergedCountColumn = "merged_n"

// Series is a cleaned per-second trip time series: exactly one row per
// distinct valid timestamp in the raw data, sorted ascending. Scalar values
// are drawn from the last non-missing raw observation at each timestamp, in
// file order. Missing values are NaN.
type Series struct {
	// Times is the ascending per-second index.
	Times []time.Time

	// MergedN[i] is the count of raw rows that shared Times[i].
	MergedN []int

	// Types[i] is the categorical event type at Times[i], collapsed to the
	// last non-empty raw value. Empty string when no row carried a type.
	Types []string

	// Fields lists the numeric column names in table order: the raw scalar
	// fields followed by the derived waveform statistic columns.
	Fields []string

	// Values maps each field name to its per-second column.
	Values map[string][]float64
}

// Len returns the number of cleaned seconds.
func (s *Series) Len() int { return len(s.Times) }

// Column returns the values for a named field, or nil if absent.
func (s *Series) Column(name string) []float64 { return s.Values[name] }

// Resampled is a Series re-gridded onto a uniform interval: one row per
// bucket, strictly increasing and uniformly spaced, covering every bucket
// between the first and last observation. Bucket values are the mean of the
// constituent seconds; empty buckets are NaN unless interpolated. The
// categorical type column does not survive resampling; merged_n does, as the
// mean raw-row count per bucket.
type Resampled struct {
	Interval time.Duration
	Times    []time.Time
	Fields   []string
	Values   map[string][]float64
}

// Len returns the number of buckets.
func (r *Resampled) Len() int { return len(r.Times) }

// Column returns the values for a named field, or nil if absent.
func (r *Resampled) Column(name string) []float64 { return r.Values[name] }

// interpolateGaps linearly fills interior NaN runs of xs in place, using the
// nearest non-missing neighbours. Leading and trailing missing runs are left
// untouched: interpolation never extrapolates past the first or last
// observed value.
func interpolateGaps(xs []float64) {
	prev := -1
	for i := 0; i < len(xs); i++ {
		if math.IsNaN(xs[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (xs[i] - xs[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				xs[j] = xs[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}
