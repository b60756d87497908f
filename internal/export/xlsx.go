package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/cats.report/internal/trip"
)

const featureSheet = "features"

// WriteMatrixXLSX writes a feature matrix workbook with one "features"
// sheet: trip keys down the first column, one feature per column. Missing
// values are left as empty cells.
func WriteMatrixXLSX(path string, m *trip.FeatureMatrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), featureSheet); err != nil {
		return fmt.Errorf("failed to name feature sheet: %w", err)
	}

	if err := setCell(f, 1, 1, "trip"); err != nil {
		return err
	}
	for j, col := range m.Columns {
		if err := setCell(f, j+2, 1, col); err != nil {
			return err
		}
	}

	for i, values := range m.Rows {
		row := i + 2
		key := fmt.Sprintf("%d", i)
		if i < len(m.Keys) && m.Keys[i] != "" {
			key = m.Keys[i]
		}
		if err := setCell(f, 1, row, key); err != nil {
			return err
		}
		for j, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if err := setCell(f, j+2, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to address cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(featureSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
