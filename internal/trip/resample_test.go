package trip

import (
	"math"
	"testing"
	"time"
)

func secondsSeries(t *testing.T, start time.Time, speed []float64) *Series {
	t.Helper()
	s := &Series{
		Fields: []string{"speed"},
		Values: map[string][]float64{"speed": speed},
	}
	for i := range speed {
		s.Times = append(s.Times, start.Add(time.Duration(i)*time.Second))
		s.MergedN = append(s.MergedN, 1)
		s.Types = append(s.Types, "A")
	}
	return s
}

func TestResampleBucketsMean(t *testing.T) {
	start := time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC)
	s := secondsSeries(t, start, []float64{1, 2, 3, 4})

	rs, err := s.Resample(2*time.Second, false)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	if rs.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", rs.Len())
	}
	speed := rs.Column("speed")
	if speed[0] != 1.5 || speed[1] != 3.5 {
		t.Errorf("bucket means = %v, want [1.5 3.5]", speed)
	}

	// merged_n survives resampling as mean raw-row count.
	if got := rs.Column(MergedCountColumn)[0]; got != 1 {
		t.Errorf("merged_n bucket mean = %v, want 1", got)
	}
}

func TestResampleUniformGridWithGaps(t *testing.T) {
	start := time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC)
	s := &Series{
		Times:   []time.Time{start, start.Add(2 * time.Minute)},
		MergedN: []int{1, 1},
		Types:   []string{"A", "A"},
		Fields:  []string{"speed"},
		Values:  map[string][]float64{"speed": {10, 30}},
	}

	rs, err := s.Resample(30*time.Second, false)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	// 10:00:00 .. 10:02:00 at 30s: 5 buckets, strictly increasing, uniform.
	if rs.Len() != 5 {
		t.Fatalf("expected 5 buckets, got %d", rs.Len())
	}
	for i := 1; i < rs.Len(); i++ {
		if got := rs.Times[i].Sub(rs.Times[i-1]); got != 30*time.Second {
			t.Errorf("bucket spacing at %d = %v, want 30s", i, got)
		}
	}

	speed := rs.Column("speed")
	for i := 1; i < 4; i++ {
		if !math.IsNaN(speed[i]) {
			t.Errorf("empty bucket %d = %v, want NaN", i, speed[i])
		}
	}
}

func TestResampleInterpolatesInteriorGaps(t *testing.T) {
	start := time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC)
	s := &Series{
		Times:   []time.Time{start, start.Add(2 * time.Minute)},
		MergedN: []int{1, 1},
		Types:   []string{"A", "A"},
		Fields:  []string{"speed"},
		Values:  map[string][]float64{"speed": {10, 30}},
	}

	rs, err := s.Resample(30*time.Second, true)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	speed := rs.Column("speed")
	want := []float64{10, 15, 20, 25, 30}
	for i := range want {
		if math.Abs(speed[i]-want[i]) > 1e-9 {
			t.Errorf("interpolated bucket %d = %v, want %v", i, speed[i], want[i])
		}
	}

	// Linear interpolation bound: every filled value stays within the range
	// of its bracketing observed buckets.
	lo, hi := 10.0, 30.0
	for i, v := range speed {
		if v < lo || v > hi {
			t.Errorf("bucket %d = %v outside [%v, %v]", i, v, lo, hi)
		}
	}
}

func TestResampleDoesNotExtrapolate(t *testing.T) {
	start := time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC)
	// Two fields: temp is missing at the edges of the trip, so its resampled
	// column has leading and trailing gaps that must stay missing.
	s := &Series{
		Times:   []time.Time{start, start.Add(30 * time.Second), start.Add(60 * time.Second), start.Add(90 * time.Second)},
		MergedN: []int{1, 1, 1, 1},
		Types:   []string{"A", "A", "A", "A"},
		Fields:  []string{"speed", "temp"},
		Values: map[string][]float64{
			"speed": {1, 2, 3, 4},
			"temp":  {math.NaN(), 50, 60, math.NaN()},
		},
	}

	rs, err := s.Resample(30*time.Second, true)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	temp := rs.Column("temp")
	if !math.IsNaN(temp[0]) {
		t.Errorf("leading gap extrapolated: %v", temp[0])
	}
	if !math.IsNaN(temp[len(temp)-1]) {
		t.Errorf("trailing gap extrapolated: %v", temp[len(temp)-1])
	}
	if temp[1] != 50 || temp[2] != 60 {
		t.Errorf("observed buckets mangled: %v", temp)
	}
}

func TestResampleEmptySeries(t *testing.T) {
	s := &Series{Fields: []string{"speed"}, Values: map[string][]float64{"speed": nil}}

	rs, err := s.Resample(30*time.Second, false)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if rs.Len() != 0 {
		t.Errorf("expected empty resample of empty series, got %d buckets", rs.Len())
	}
}

func TestResampleRejectsNonPositiveInterval(t *testing.T) {
	s := secondsSeries(t, time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC), []float64{1})
	if _, err := s.Resample(0, false); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := s.Resample(-time.Second, false); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestInterpolateGaps(t *testing.T) {
	xs := []float64{math.NaN(), 1, math.NaN(), math.NaN(), 4, math.NaN()}
	interpolateGaps(xs)

	if !math.IsNaN(xs[0]) || !math.IsNaN(xs[5]) {
		t.Errorf("edges must not be extrapolated: %v", xs)
	}
	if xs[2] != 2 || xs[3] != 3 {
		t.Errorf("interior gap fill = %v, want [_ 1 2 3 4 _]", xs)
	}
}
