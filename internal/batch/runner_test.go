package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/cats.report/internal/config"
	"github.com/banshee-data/cats.report/internal/fsutil"
)

const tripColumns = 33

// writeTestTrip writes a minimal valid 33-column trip file with one speed
// observation per given timestamp.
func writeTestTrip(t *testing.T, fsys *fsutil.MemoryFileSystem, path string, stamps []string) {
	t.Helper()

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"timestamp", "catsid", "type", "speed"}
	for i := len(header); i < tripColumns; i++ {
		header = append(header, fmt.Sprintf("col_%02d", i))
	}
	if err := w.Write(header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}

	for i, ts := range stamps {
		rec := make([]string, tripColumns)
		rec[0] = ts
		rec[1] = "1"
		rec[2] = "A"
		rec[3] = fmt.Sprintf("%d", 10+i)
		if err := w.Write(rec); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	w.Flush()

	if err := fsys.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write trip file: %v", err)
	}
}

func writeBrokenTrip(t *testing.T, fsys *fsutil.MemoryFileSystem, path string) {
	t.Helper()
	// Too few columns: a format violation.
	if err := fsys.WriteFile(path, []byte("timestamp,catsid\n2019-03-04 10:00:00,1\n"), 0644); err != nil {
		t.Fatalf("failed to write trip file: %v", err)
	}
}

func TestRunCatchAndContinue(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeTestTrip(t, fsys, "trips/a.csv", []string{"2019-03-04 10:00:00", "2019-03-04 10:00:30"})
	writeBrokenTrip(t, fsys, "trips/b.csv")
	writeTestTrip(t, fsys, "trips/c.csv", []string{"2019-03-04 11:00:00", "2019-03-04 11:01:00"})

	runner := NewRunner(fsys, nil)
	result, err := runner.Run(context.Background(), []string{"trips/a.csv", "trips/b.csv", "trips/c.csv"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(result.Trips) != 2 {
		t.Fatalf("expected 2 successful trips, got %d", len(result.Trips))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if result.Failures[0].Path != "trips/b.csv" {
		t.Errorf("failure path = %q, want trips/b.csv", result.Failures[0].Path)
	}

	// Feature matrix is keyed by trip path, rows in input order.
	if result.Features.Len() != 2 {
		t.Fatalf("expected 2 feature rows, got %d", result.Features.Len())
	}
	if result.Features.Keys[0] != "trips/a.csv" || result.Features.Keys[1] != "trips/c.csv" {
		t.Errorf("feature keys = %v", result.Features.Keys)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	runner := NewRunner(fsutil.NewMemoryFileSystem(), nil)
	result, err := runner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Features.Len() != 0 {
		t.Errorf("expected empty feature matrix, got %d rows", result.Features.Len())
	}
}

func TestRunParallelPreservesOrder(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	var paths []string
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("trips/trip_%d.csv", i)
		writeTestTrip(t, fsys, path, []string{"2019-03-04 10:00:00", "2019-03-04 10:05:00"})
		paths = append(paths, path)
	}

	workers := 4
	cfg := config.EmptyPipelineConfig()
	cfg.Workers = &workers

	runner := NewRunner(fsys, cfg)
	result, err := runner.Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Trips) != len(paths) {
		t.Fatalf("expected %d trips, got %d", len(paths), len(result.Trips))
	}
	for i, path := range paths {
		if result.Trips[i].Path != path {
			t.Errorf("trip %d path = %q, want %q", i, result.Trips[i].Path, path)
		}
		if result.Features.Keys[i] != path {
			t.Errorf("feature key %d = %q, want %q", i, result.Features.Keys[i], path)
		}
	}
}

func TestRunComputesDuration(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeTestTrip(t, fsys, "trips/a.csv", []string{"2019-03-04 10:00:00", "2019-03-04 10:05:00"})

	runner := NewRunner(fsys, nil)
	result, err := runner.Run(context.Background(), []string{"trips/a.csv"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := result.Trips[0].Duration; got != 5*time.Minute {
		t.Errorf("trip duration = %v, want 5m", got)
	}
}

func TestRunCancelled(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeTestTrip(t, fsys, "trips/a.csv", []string{"2019-03-04 10:00:00"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(fsys, nil)
	if _, err := runner.Run(ctx, []string{"trips/a.csv"}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
