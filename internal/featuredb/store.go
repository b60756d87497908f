package featuredb

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/banshee-data/cats.report/internal/trip"
)

// SaveRun records a batch run together with its feature matrix. Features are
// stored in long form (run, trip, feature, value) so the column set may vary
// freely between runs; missing values are stored as NULL.
func (db *DB) SaveRun(runID string, failureCount int, m *trip.FeatureMatrix) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, trip_count, failure_count) VALUES (?, ?, ?)`,
		runID, m.Len(), failureCount,
	); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO trip_features (run_id, trip_key, feature, value) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range m.Rows {
		key := ""
		if i < len(m.Keys) {
			key = m.Keys[i]
		}
		for j, col := range m.Columns {
			value := sql.NullFloat64{}
			if !math.IsNaN(row[j]) {
				value = sql.NullFloat64{Float64: row[j], Valid: true}
			}
			if _, err := stmt.Exec(runID, key, col, value); err != nil {
				return fmt.Errorf("failed to insert feature %s for %s: %w", col, key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunFeatures loads the stored features for a run as trip_key → feature →
// value. Missing (NULL) values come back as NaN.
func (db *DB) RunFeatures(runID string) (map[string]map[string]float64, error) {
	rows, err := db.Query(
		`SELECT trip_key, feature, value FROM trip_features WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]float64)
	for rows.Next() {
		var key, feature string
		var value sql.NullFloat64
		if err := rows.Scan(&key, &feature, &value); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		if out[key] == nil {
			out[key] = make(map[string]float64)
		}
		if value.Valid {
			out[key][feature] = value.Float64
		} else {
			out[key][feature] = math.NaN()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read features: %w", err)
	}

	return out, nil
}

// Runs lists the recorded run IDs, most recent first.
func (db *DB) Runs(limit int) ([]string, error) {
	rows, err := db.Query(
		`SELECT run_id FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
