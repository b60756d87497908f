package trip

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Waveform columns hold sub-second sensor samples captured within one second,
// encoded as whitespace-separated numeric tokens in a single CSV cell. The
// encoding is noisy: cells may contain stray escaped quote characters and the
// literal text "nan" for dropped samples.

// waveformCleaner strips the known encoding artifacts before tokenizing.
var waveformCleaner = strings.NewReplacer(`\"`, " ", `"`, " ", "nan", " ")

// DecodeWaveform parses a string-encoded waveform cell into a numeric
// sequence. Empty input (including cells that are all noise) yields an empty
// sequence. A token that cannot be parsed as a number returns a *DecodeError
// carrying the offending token; the caller fills in row and column context.
func DecodeWaveform(cell string) ([]float64, error) {
	tokens := strings.Fields(waveformCleaner.Replace(cell))
	if len(tokens) == 0 {
		return nil, nil
	}

	samples := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &DecodeError{Token: tok, Err: err}
		}
		samples = append(samples, v)
	}

	return samples, nil
}

// WaveReducer reduces a decoded waveform to a single scalar statistic. The
// set of reducers is closed: unknown statistic names are rejected when the
// cleaner is configured, not at reduction time.
type WaveReducer struct {
	Name string
	fn   func([]float64) float64
}

// waveReducers maps the supported statistic names to their reduction
// functions. Waveform std follows the source convention of population
// standard deviation.
var waveReducers = map[string]func([]float64) float64{
	"mean": func(xs []float64) float64 { return stat.Mean(xs, nil) },
	"std":  func(xs []float64) float64 { return stat.PopStdDev(xs, nil) },
	"min":  func(xs []float64) float64 { return floats.Min(xs) },
	"max":  func(xs []float64) float64 { return floats.Max(xs) },
	"sum":  func(xs []float64) float64 { return floats.Sum(xs) },
	"median": func(xs []float64) float64 {
		sorted := make([]float64, len(xs))
		copy(sorted, xs)
		sort.Float64s(sorted)
		return quantile(0.5, sorted)
	},
}

// WaveReducerFor resolves a statistic name to its reducer. Unknown names are
// a configuration error.
func WaveReducerFor(name string) (WaveReducer, error) {
	fn, ok := waveReducers[name]
	if !ok {
		return WaveReducer{}, fmt.Errorf("unknown waveform statistic %q (supported: %s)",
			name, strings.Join(WaveStatNames(), ", "))
	}
	return WaveReducer{Name: name, fn: fn}, nil
}

// IsWaveStat reports whether name is a supported waveform statistic.
func IsWaveStat(name string) bool {
	_, ok := waveReducers[name]
	return ok
}

// WaveStatNames returns the supported statistic names in sorted order.
func WaveStatNames() []string {
	names := make([]string, 0, len(waveReducers))
	for name := range waveReducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reduce computes the statistic over the decoded sequence. An empty sequence
// reduces to NaN (the missing marker), never zero.
func (r WaveReducer) Reduce(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return r.fn(xs)
}
