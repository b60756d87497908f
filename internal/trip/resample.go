package trip

import (
	"fmt"
	"math"
	"time"
)

// Resample buckets the series onto an interval-wide uniform grid. Bucket
// values are the arithmetic mean of the constituent seconds per numeric
// column; buckets with no observations are NaN. With interpolate set,
// interior gaps are filled linearly between neighbouring buckets; values are
// never extrapolated past the first or last observed bucket.
func (s *Series) Resample(interval time.Duration, interpolate bool) (*Resampled, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("resample interval must be positive, got %v", interval)
	}

	fields := append([]string{MergedCountColumn}, s.Fields...)
	out := &Resampled{
		Interval: interval,
		Fields:   fields,
		Values:   make(map[string][]float64, len(fields)),
	}
	if s.Len() == 0 {
		return out, nil
	}

	start := s.Times[0].Truncate(interval)
	end := s.Times[s.Len()-1].Truncate(interval)
	n := int(end.Sub(start)/interval) + 1

	out.Times = make([]time.Time, n)
	for i := range out.Times {
		out.Times[i] = start.Add(time.Duration(i) * interval)
	}

	sums := make(map[string][]float64, len(fields))
	counts := make(map[string][]int, len(fields))
	for _, f := range fields {
		sums[f] = make([]float64, n)
		counts[f] = make([]int, n)
	}

	accumulate := func(field string, bucket int, v float64) {
		if math.IsNaN(v) {
			return
		}
		sums[field][bucket] += v
		counts[field][bucket]++
	}

	for i, t := range s.Times {
		bucket := int(t.Truncate(interval).Sub(start) / interval)
		accumulate(MergedCountColumn, bucket, float64(s.MergedN[i]))
		for _, f := range s.Fields {
			accumulate(f, bucket, s.Values[f][i])
		}
	}

	for _, f := range fields {
		col := make([]float64, n)
		for i := range col {
			if counts[f][i] == 0 {
				col[i] = math.NaN()
				continue
			}
			col[i] = sums[f][i] / float64(counts[f][i])
		}
		if interpolate {
			interpolateGaps(col)
		}
		out.Values[f] = col
	}

	return out, nil
}
