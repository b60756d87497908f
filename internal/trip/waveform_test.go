package trip

import (
	"math"
	"testing"
)

func TestDecodeWaveform(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []float64
	}{
		{"plain tokens", "1 2 3", []float64{1, 2, 3}},
		{"extra whitespace", "  1.5   2.5 ", []float64{1.5, 2.5}},
		{"nan noise removed", "nan 4 nan 6", []float64{4, 6}},
		{"all nan is empty", "nan nan nan", nil},
		{"empty cell", "", nil},
		{"escaped quotes stripped", `1 \" 2 "3`, []float64{1, 2, 3}},
		{"negative and scientific", "-1.5 2e3", []float64{-1.5, 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeWaveform(tt.cell)
			if err != nil {
				t.Fatalf("DecodeWaveform(%q) failed: %v", tt.cell, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeWaveform(%q) = %v, want %v", tt.cell, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeWaveformBadToken(t *testing.T) {
	_, err := DecodeWaveform("1 2 bogus 4")
	if err == nil {
		t.Fatal("expected decode error for non-numeric token")
	}

	derr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if derr.Token != "bogus" {
		t.Errorf("expected offending token %q, got %q", "bogus", derr.Token)
	}
}

func TestWaveReducers(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	tests := []struct {
		stat string
		want float64
	}{
		{"mean", 2.5},
		{"min", 1},
		{"max", 4},
		{"sum", 10},
		{"median", 2.5},
		{"std", math.Sqrt(1.25)}, // population std
	}

	for _, tt := range tests {
		r, err := WaveReducerFor(tt.stat)
		if err != nil {
			t.Fatalf("WaveReducerFor(%s) failed: %v", tt.stat, err)
		}
		got := r.Reduce(xs)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s(%v) = %v, want %v", tt.stat, xs, got, tt.want)
		}
	}
}

func TestWaveReducerEmptySequenceIsMissing(t *testing.T) {
	for _, name := range WaveStatNames() {
		r, err := WaveReducerFor(name)
		if err != nil {
			t.Fatalf("WaveReducerFor(%s) failed: %v", name, err)
		}
		if got := r.Reduce(nil); !math.IsNaN(got) {
			t.Errorf("%s of empty sequence = %v, want NaN", name, got)
		}
	}
}

func TestWaveReducerForUnknownName(t *testing.T) {
	if _, err := WaveReducerFor("kurtosis"); err == nil {
		t.Error("expected error for unknown statistic name")
	}
	if IsWaveStat("kurtosis") {
		t.Error("IsWaveStat accepted unknown statistic")
	}
	if !IsWaveStat("mean") {
		t.Error("IsWaveStat rejected mean")
	}
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	if got := quantile(0.5, sorted); got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
	if got := quantile(0.25, sorted); got != 1.75 {
		t.Errorf("p25 = %v, want 1.75", got)
	}
	if got := quantile(0.75, sorted); got != 3.25 {
		t.Errorf("p75 = %v, want 3.25", got)
	}
	if got := quantile(0, sorted); got != 1 {
		t.Errorf("p0 = %v, want 1", got)
	}
	if got := quantile(1, sorted); got != 4 {
		t.Errorf("p100 = %v, want 4", got)
	}
	if got := quantile(0.5, []float64{7}); got != 7 {
		t.Errorf("single-element median = %v, want 7", got)
	}
	if got := quantile(0.5, nil); !math.IsNaN(got) {
		t.Errorf("empty median = %v, want NaN", got)
	}
}
