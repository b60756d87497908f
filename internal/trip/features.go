package trip

import "math"

// FeatureRow is a single flattened summary: one column per (field, statistic)
// pair, named {field}_{statistic}. Columns are ordered fields-major with
// statistics in StatNames order, so the layout is deterministic.
type FeatureRow struct {
	Names  []string
	Values []float64
}

// FeatureMatrix stacks one FeatureRow per trip. Rows keep their input order;
// Keys carries the caller-supplied per-trip identity (empty keys when trips
// were stacked without one). The column set is the union across trips; a
// (field, statistic) pair absent from a trip is NaN in that trip's row.
type FeatureMatrix struct {
	Keys    []string
	Columns []string
	Rows    [][]float64
}

// Len returns the number of trips in the matrix.
func (m *FeatureMatrix) Len() int { return len(m.Rows) }

// FeaturizeTrip flattens a SummaryTable into a single FeatureRow. Every
// (field, statistic) combination is preserved; statistics missing for a field
// are filled with NaN.
func FeaturizeTrip(summary *SummaryTable) FeatureRow {
	row := FeatureRow{
		Names:  make([]string, 0, len(summary.Fields)*len(StatNames)),
		Values: make([]float64, 0, len(summary.Fields)*len(StatNames)),
	}

	for _, field := range summary.Fields {
		fs, ok := summary.Rows[field]
		for _, statName := range StatNames {
			row.Names = append(row.Names, field+"_"+statName)
			if !ok {
				row.Values = append(row.Values, math.NaN())
				continue
			}
			row.Values = append(row.Values, fs.Stat(statName))
		}
	}

	return row
}

// FeaturizeTrips stacks per-trip feature rows in the order given, indexed
// 0..N-1. Trip identity is not preserved; use FeaturizeTripsKeyed when the
// caller needs to map rows back to trips.
func FeaturizeTrips(summaries []*SummaryTable) *FeatureMatrix {
	return FeaturizeTripsKeyed(nil, summaries)
}

// FeaturizeTripsKeyed stacks per-trip feature rows with a caller-supplied key
// per trip (typically the trip file path). keys may be nil; when present its
// length must match summaries, surplus rows keep an empty key. Handles empty
// and single-element input.
func FeaturizeTripsKeyed(keys []string, summaries []*SummaryTable) *FeatureMatrix {
	m := &FeatureMatrix{Keys: make([]string, len(summaries))}
	for i := range summaries {
		if i < len(keys) {
			m.Keys[i] = keys[i]
		}
	}

	// Union of columns across trips, in first-seen order.
	colIndex := make(map[string]int)
	rows := make([]FeatureRow, len(summaries))
	for i, summary := range summaries {
		rows[i] = FeaturizeTrip(summary)
		for _, name := range rows[i].Names {
			if _, ok := colIndex[name]; !ok {
				colIndex[name] = len(m.Columns)
				m.Columns = append(m.Columns, name)
			}
		}
	}

	m.Rows = make([][]float64, len(summaries))
	for i, row := range rows {
		out := make([]float64, len(m.Columns))
		for j := range out {
			out[j] = math.NaN()
		}
		for k, name := range row.Names {
			out[colIndex[name]] = row.Values[k]
		}
		m.Rows[i] = out
	}

	return m
}
