// Package export writes pipeline results to caller-chosen formats. The core
// pipeline mandates no on-disk representation; these writers are the
// CSV/XLSX choices offered by the CLI.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/cats.report/internal/trip"
)

// formatCell renders a value for CSV output. Missing values become empty
// cells rather than the literal NaN.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSummaryCSV writes a per-trip summary table: one row per field, one
// column per statistic.
func WriteSummaryCSV(w io.Writer, table *trip.SummaryTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{"field"}, trip.StatNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for _, field := range table.Fields {
		fs := table.Rows[field]
		row := make([]string, 0, len(header))
		row = append(row, field)
		for _, stat := range trip.StatNames {
			row = append(row, formatCell(fs.Stat(stat)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row for %s: %w", field, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatrixCSV writes a feature matrix: one row per trip, keyed by the
// trip identity in the first column.
func WriteMatrixCSV(w io.Writer, m *trip.FeatureMatrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{"trip"}, m.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write matrix header: %w", err)
	}

	for i, values := range m.Rows {
		row := make([]string, 0, len(header))
		key := strconv.Itoa(i)
		if i < len(m.Keys) && m.Keys[i] != "" {
			key = m.Keys[i]
		}
		row = append(row, key)
		for _, v := range values {
			row = append(row, formatCell(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write matrix row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
