package trip

import (
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/cats.report/internal/fsutil"
	"github.com/banshee-data/cats.report/internal/monitoring"
)

const (
	// rawColumnCount is the number of usable columns in a CATS trip file.
	// Later columns are undefined by the format and ignored.
	rawColumnCount = 33

	// waveformStartColumn is the raw column index from which cells hold
	// string-encoded waveforms rather than scalars.
	waveformStartColumn = 24

	// invalidDateMarker flags sensor timestamps the logger could not format.
	invalidDateMarker = "Invalid Date"

	// DefaultMaxRows bounds how many raw rows a single trip file may carry.
	// Trip files hold one journey at one-second resolution, so anything near
	// this limit is malformed input rather than a long trip.
	DefaultMaxRows = 500000
)

// timestampLayouts are the layouts the CATS logger is known to emit.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
}

// CleanerConfig configures a trip Cleaner.
type CleanerConfig struct {
	// WaveFeatures is the ordered list of statistics derived from each
	// waveform column. Empty means no derived columns; the raw waveform
	// columns are dropped either way.
	WaveFeatures []string

	// StrictDecode promotes waveform decode failures from per-cell warnings
	// to a file-level error.
	StrictDecode bool

	// MaxRows overrides DefaultMaxRows when positive.
	MaxRows int
}

// CleanReport records the recoverable defects encountered while cleaning a
// single trip file.
type CleanReport struct {
	Path                 string
	RawRows              int
	InvalidDateRows      int
	NonNumericCells      int
	SentinelReplacements int
	DecodeFailures       []DecodeError
}

// Cleaner reads one raw CATS trip file and cleans it into a per-second
// Series. The raw table is transient; the cleaned series is owned by the
// Cleaner and persists for its life.
type Cleaner struct {
	fsys   fsutil.FileSystem
	path   string
	cfg    CleanerConfig
	wave   []WaveReducer
	series *Series
	report *CleanReport
}

// NewCleaner creates a Cleaner for the trip file at path. Waveform statistic
// names are validated here so misconfiguration fails before any file is read.
func NewCleaner(fsys fsutil.FileSystem, path string, cfg CleanerConfig) (*Cleaner, error) {
	reducers := make([]WaveReducer, 0, len(cfg.WaveFeatures))
	for _, name := range cfg.WaveFeatures {
		r, err := WaveReducerFor(name)
		if err != nil {
			return nil, fmt.Errorf("invalid cleaner config: %w", err)
		}
		reducers = append(reducers, r)
	}

	return &Cleaner{fsys: fsys, path: path, cfg: cfg, wave: reducers}, nil
}

// Path returns the trip file path this cleaner was created for.
func (c *Cleaner) Path() string { return c.path }

// Series returns the cleaned time series. It fails with ErrNotCleaned until
// Clean has run.
func (c *Cleaner) Series() (*Series, error) {
	if c.series == nil {
		return nil, ErrNotCleaned
	}
	return c.series, nil
}

// Report returns the clean report for the last Clean run. It fails with
// ErrNotCleaned until Clean has run.
func (c *Cleaner) Report() (*CleanReport, error) {
	if c.report == nil {
		return nil, ErrNotCleaned
	}
	return c.report, nil
}

// Clean runs the full cleaning pipeline and stores the result. The file is
// re-read on every call, so Clean is idempotent while the underlying file is
// unchanged. Each stage is a pure function over the previous stage's output.
func (c *Cleaner) Clean() error {
	report := &CleanReport{Path: c.path}

	raw, err := c.readRaw()
	if err != nil {
		return err
	}
	report.RawRows = len(raw.rows)

	raw.headers = normalizeHeaders(raw.headers)

	if dup := duplicateHeader(raw.headers); dup != "" {
		return &FormatError{
			Path:   c.path,
			Reason: fmt.Sprintf("columns collide after normalization: %q appears more than once", dup),
		}
	}

	tsIdx := columnIndex(raw.headers, "timestamp")
	if tsIdx < 0 {
		return &FormatError{Path: c.path, Reason: "required column 'timestamp' not found"}
	}

	rows, dropped := dropInvalidDates(raw.rows, tsIdx)
	report.InvalidDateRows = dropped

	times, err := c.parseTimestamps(rows, tsIdx)
	if err != nil {
		return err
	}

	catsIdx := columnIndex(raw.headers, "catsid")
	typeIdx := columnIndex(raw.headers, "type")

	scalarCols, waveCols := splitColumns(raw.headers, tsIdx, catsIdx, typeIdx)

	fields, values := c.parseScalars(raw.headers, rows, scalarCols, report)

	waveFields, waveValues, err := c.decodeWaveforms(raw.headers, rows, waveCols, report)
	if err != nil {
		return err
	}
	fields = append(fields, waveFields...)
	for name, col := range waveValues {
		values[name] = col
	}

	replaceSentinel(values, report)

	types := columnStrings(rows, typeIdx)
	c.series = aggregateRows(times, types, fields, values)
	c.report = report

	return nil
}

// Resample re-grids the cleaned series onto a coarser uniform interval. It
// fails with ErrNotCleaned until Clean has run; see Series.Resample for the
// bucketing and interpolation semantics.
func (c *Cleaner) Resample(interval time.Duration, interpolate bool) (*Resampled, error) {
	s, err := c.Series()
	if err != nil {
		return nil, err
	}
	return s.Resample(interval, interpolate)
}

// rawTable is the transient first-33-columns view of a trip file.
type rawTable struct {
	headers []string
	rows    [][]string
}

// readRaw reads the trip file, restricting every record to the first 33
// columns. Fewer than 33 columns anywhere is a format violation.
func (c *Cleaner) readRaw() (*rawTable, error) {
	f, err := c.fsys.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trip file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &FormatError{Path: c.path, Reason: fmt.Sprintf("unparseable CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, &FormatError{Path: c.path, Reason: "file is empty"}
	}

	header := records[0]
	if len(header) < rawColumnCount {
		return nil, &FormatError{
			Path:   c.path,
			Reason: fmt.Sprintf("header has %d columns, format requires %d", len(header), rawColumnCount),
		}
	}

	maxRows := c.cfg.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if len(records)-1 > maxRows {
		return nil, &FormatError{
			Path:   c.path,
			Reason: fmt.Sprintf("file has %d rows, exceeds maximum %d", len(records)-1, maxRows),
		}
	}

	table := &rawTable{headers: header[:rawColumnCount]}
	for i, rec := range records[1:] {
		if len(rec) < rawColumnCount {
			return nil, &FormatError{
				Path:   c.path,
				Reason: fmt.Sprintf("row %d has %d columns, format requires %d", i+1, len(rec), rawColumnCount),
			}
		}
		table.rows = append(table.rows, rec[:rawColumnCount])
	}

	return table, nil
}

// normalizeHeaders produces stable, code-safe column names: trimmed,
// lowercased, spaces replaced with underscores and parentheses stripped.
func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		h = strings.ToLower(h)
		h = strings.ReplaceAll(h, " ", "_")
		h = strings.ReplaceAll(h, "(", "")
		h = strings.ReplaceAll(h, ")", "")
		out[i] = h
	}
	return out
}

// duplicateHeader returns the first normalized name that appears more than
// once, or "" when all names are distinct. Distinct raw headers can collide
// after normalization ("Speed (kmh)" and "Speed kmh" both become speed_kmh)
// and would silently share one column.
func duplicateHeader(headers []string) string {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h] {
			return h
		}
		seen[h] = true
	}
	return ""
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

// dropInvalidDates removes rows whose timestamp cell contains the logger's
// "Invalid Date" marker. These must never reach timestamp parsing.
func dropInvalidDates(rows [][]string, tsIdx int) ([][]string, int) {
	kept := make([][]string, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if strings.Contains(row[tsIdx], invalidDateMarker) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	return kept, dropped
}

// parseTimestamps converts the timestamp column. Any parse failure after
// invalid-date filtering is a defect in the file and is surfaced, not
// silently dropped.
func (c *Cleaner) parseTimestamps(rows [][]string, tsIdx int) ([]time.Time, error) {
	times := make([]time.Time, len(rows))
	for i, row := range rows {
		raw := strings.TrimSpace(row[tsIdx])
		t, err := parseTimestamp(raw)
		if err != nil {
			return nil, &FormatError{
				Path:   c.path,
				Reason: fmt.Sprintf("row %d: unparseable timestamp %q", i+1, raw),
			}
		}
		times[i] = t
	}
	return times, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no known timestamp layout matches %q", s)
}

// splitColumns partitions raw column indices into scalar and waveform
// columns, excluding the timestamp, catsid and type columns.
func splitColumns(headers []string, tsIdx, catsIdx, typeIdx int) (scalar, wave []int) {
	for i := range headers {
		if i == tsIdx || i == catsIdx || i == typeIdx {
			continue
		}
		if i >= waveformStartColumn {
			wave = append(wave, i)
			continue
		}
		scalar = append(scalar, i)
	}
	return scalar, wave
}

// parseScalars converts the scalar sensor columns to numeric values. Empty
// cells and the literal "nan" are missing; any other unparseable cell is
// treated as missing with a warning, and counted in the report.
func (c *Cleaner) parseScalars(headers []string, rows [][]string, cols []int, report *CleanReport) ([]string, map[string][]float64) {
	fields := make([]string, 0, len(cols))
	values := make(map[string][]float64, len(cols))

	for _, idx := range cols {
		name := headers[idx]
		col := make([]float64, len(rows))
		for i, row := range rows {
			cell := strings.TrimSpace(row[idx])
			if cell == "" || strings.EqualFold(cell, "nan") {
				col[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				monitoring.Logf("WARNING: %s row %d: non-numeric value %q in column %s, treating as missing",
					c.path, i+1, cell, name)
				report.NonNumericCells++
				col[i] = math.NaN()
				continue
			}
			col[i] = v
		}
		fields = append(fields, name)
		values[name] = col
	}

	return fields, values
}

// decodeWaveforms decodes every waveform cell and reduces it to the
// configured statistics. A cell that fails to decode becomes missing across
// its derived columns and is recorded in the report; with StrictDecode the
// failure aborts the file instead. Derived columns are named
// {field}_{statistic}; the original waveform columns are dropped.
func (c *Cleaner) decodeWaveforms(headers []string, rows [][]string, cols []int, report *CleanReport) ([]string, map[string][]float64, error) {
	var fields []string
	values := make(map[string][]float64)

	for _, idx := range cols {
		name := headers[idx]

		decoded := make([][]float64, len(rows))
		for i, row := range rows {
			samples, err := DecodeWaveform(row[idx])
			if err != nil {
				var derr *DecodeError
				if de, ok := err.(*DecodeError); ok {
					derr = de
				} else {
					derr = &DecodeError{Err: err}
				}
				derr.Row = i + 1
				derr.Column = name
				if c.cfg.StrictDecode {
					return nil, nil, fmt.Errorf("trip file %s: %w", c.path, derr)
				}
				monitoring.Logf("WARNING: %s: %v, treating cell as missing", c.path, derr)
				report.DecodeFailures = append(report.DecodeFailures, *derr)
				samples = nil
			}
			decoded[i] = samples
		}

		for _, reducer := range c.wave {
			feature := name + "_" + reducer.Name
			col := make([]float64, len(rows))
			for i, samples := range decoded {
				col[i] = reducer.Reduce(samples)
			}
			fields = append(fields, feature)
			values[feature] = col
		}
	}

	return fields, values, nil
}

// replaceSentinel substitutes the hardware "no reading" sentinel with NaN
// across every numeric column, derived waveform statistics included.
func replaceSentinel(values map[string][]float64, report *CleanReport) {
	for _, col := range values {
		for i, v := range col {
			if v == MissingSentinel {
				col[i] = math.NaN()
				report.SentinelReplacements++
			}
		}
	}
}

func columnStrings(rows [][]string, idx int) []string {
	out := make([]string, len(rows))
	if idx < 0 {
		return out
	}
	for i, row := range rows {
		out[i] = strings.TrimSpace(row[idx])
	}
	return out
}

// aggregateRows collapses multiple raw rows per timestamp into one row per
// second. The representative scalar for each field is the last non-missing
// value in original file order; the set-based dedup of the legacy tooling is
// deliberately replaced by this explicit ordered reduction so the result is
// deterministic across runs. merged_n records how many raw rows were
// collapsed. Output rows are sorted ascending by timestamp.
func aggregateRows(times []time.Time, types []string, fields []string, values map[string][]float64) *Series {
	type group struct {
		t    time.Time
		rows []int
	}

	index := make(map[int64]int)
	var groups []group
	for i, t := range times {
		key := t.Unix()
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, group{t: t})
		}
		groups[gi].rows = append(groups[gi].rows, i)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].t.Before(groups[j].t) })

	s := &Series{
		Times:   make([]time.Time, len(groups)),
		MergedN: make([]int, len(groups)),
		Types:   make([]string, len(groups)),
		Fields:  fields,
		Values:  make(map[string][]float64, len(fields)),
	}
	for _, f := range fields {
		s.Values[f] = make([]float64, len(groups))
	}

	for gi, g := range groups {
		s.Times[gi] = g.t
		s.MergedN[gi] = len(g.rows)

		for _, ri := range g.rows {
			if types[ri] != "" {
				s.Types[gi] = types[ri]
			}
		}

		for _, f := range fields {
			col := values[f]
			v := math.NaN()
			for _, ri := range g.rows {
				if !math.IsNaN(col[ri]) {
					v = col[ri]
				}
			}
			s.Values[f][gi] = v
		}
	}

	return s
}
