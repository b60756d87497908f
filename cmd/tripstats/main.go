package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/banshee-data/cats.report/internal/batch"
	"github.com/banshee-data/cats.report/internal/config"
	"github.com/banshee-data/cats.report/internal/export"
	"github.com/banshee-data/cats.report/internal/featuredb"
	"github.com/banshee-data/cats.report/internal/fsutil"
	"github.com/banshee-data/cats.report/internal/trip"
	"github.com/banshee-data/cats.report/internal/version"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// .env is optional; flags and real environment win over it.
	_ = godotenv.Load()

	var inputDir string
	var configPath string
	var summaryDir string
	var featuresCSV string
	var featuresXLSX string
	var dbPath string
	var showVersion bool

	flag.StringVar(&inputDir, "input", envOr("TRIPSTATS_INPUT", ""), "directory to scan for trip files")
	flag.StringVar(&configPath, "config", envOr("TRIPSTATS_CONFIG", ""), "path to pipeline config (.json)")
	flag.StringVar(&summaryDir, "summary-dir", "", "directory for per-trip summary CSV files")
	flag.StringVar(&featuresCSV, "features", "", "path for the feature matrix CSV")
	flag.StringVar(&featuresXLSX, "xlsx", "", "path for the feature matrix workbook")
	flag.StringVar(&dbPath, "db", envOr("TRIPSTATS_DB", ""), "path to the feature store sqlite db")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("tripstats %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if inputDir == "" {
		log.Fatalf("input directory must be provided (-input or TRIPSTATS_INPUT)")
	}

	fsys := fsutil.OSFileSystem{}

	cfg := config.EmptyPipelineConfig()
	if configPath != "" {
		var err error
		cfg, err = config.LoadPipelineConfig(fsys, configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	if !fsys.Exists(inputDir) {
		log.Fatalf("input directory %s does not exist", inputDir)
	}

	paths, err := fsutil.DiscoverTrips(fsys, inputDir, cfg.GetTripExtension())
	if err != nil {
		log.Fatalf("discover trips: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no %s trip files under %s", cfg.GetTripExtension(), inputDir)
	}
	fmt.Printf("processing %d trip files from %s\n", len(paths), inputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := batch.NewRunner(fsys, cfg).Run(ctx, paths)
	if err != nil {
		log.Fatalf("batch run: %v", err)
	}

	for _, tr := range result.Trips {
		fmt.Printf("%s: %d rows, duration %s\n",
			tr.Path, tr.Report.RawRows, trip.FormatDuration(tr.Duration))
	}
	for _, fe := range result.Failures {
		fmt.Printf("%s: FAILED: %v\n", fe.Path, fe.Err)
	}

	if summaryDir != "" {
		if err := writeSummaries(fsys, summaryDir, result.Trips); err != nil {
			log.Fatalf("write summaries: %v", err)
		}
	}

	if featuresCSV != "" {
		f, err := fsys.Create(featuresCSV)
		if err != nil {
			log.Fatalf("create %s: %v", featuresCSV, err)
		}
		if err := export.WriteMatrixCSV(f, result.Features); err != nil {
			f.Close()
			log.Fatalf("write feature matrix: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close %s: %v", featuresCSV, err)
		}
	}

	if featuresXLSX != "" {
		if err := export.WriteMatrixXLSX(featuresXLSX, result.Features); err != nil {
			log.Fatalf("write workbook: %v", err)
		}
	}

	if dbPath != "" {
		store, err := featuredb.Open(dbPath)
		if err != nil {
			log.Fatalf("open feature store: %v", err)
		}
		defer store.Close()
		if err := store.SaveRun(result.RunID, len(result.Failures), result.Features); err != nil {
			log.Fatalf("save run: %v", err)
		}
		fmt.Printf("saved run %s to %s\n", result.RunID, dbPath)
	}

	fmt.Printf("done: %d ok, %d failed\n", len(result.Trips), len(result.Failures))
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}

// summaryFileName derives a per-trip summary file name from the trip path.
func summaryFileName(tripPath string) string {
	base := filepath.Base(tripPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_summary.csv"
}

func writeSummaries(fsys fsutil.FileSystem, dir string, trips []batch.TripResult) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, tr := range trips {
		out := filepath.Join(dir, summaryFileName(tr.Path))
		f, err := fsys.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := export.WriteSummaryCSV(f, tr.Summary); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", out, err)
		}
	}
	return nil
}
