package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"filing_tables/pkg/core/config"
	"filing_tables/pkg/core/extract"
	"filing_tables/pkg/core/ingest"
	"filing_tables/pkg/core/pipeline"
	"filing_tables/pkg/core/store"
	"filing_tables/pkg/core/table"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or Hjson config file")
	source := flag.String("source", "", "Filing HTML (path or URL), or staging JSON with -input json")
	input := flag.String("input", "", "Input format: html or json")
	outDir := flag.String("out", "", "Directory for FinalJson<N>.json files")
	stagingDir := flag.String("staging", "", "Directory for cleaned table dumps")
	keepStaging := flag.Bool("keep-staging", false, "Do not clear the staging directory after the run")
	workers := flag.Int("workers", 0, "Number of tables processed concurrently")
	workbook := flag.String("workbook", "", "Also write all documents to this .xlsx file")
	metricsFile := flag.String("metrics", "", "Write run metrics in Prometheus text format to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags win over file and environment, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "input":
			cfg.Input = *input
		case "out":
			cfg.OutputDir = *outDir
		case "staging":
			cfg.StagingDir = *stagingDir
		case "keep-staging":
			cfg.ClearStaging = !*keepStaging
		case "workers":
			cfg.Workers = *workers
		case "workbook":
			cfg.Workbook = *workbook
		case "metrics":
			cfg.MetricsFile = *metricsFile
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("Fatal: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	fmt.Printf("Extracting tables from %s (%s)...\n", cfg.Source, cfg.Input)

	tables, err := readTables(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d tables\n", len(tables))

	extractor, err := extract.NewExtractor(cfg.ExtractOptions())
	if err != nil {
		return fmt.Errorf("failed to build extractor: %w", err)
	}

	// Staging input is already the scratch output; never re-stage or clear it.
	staging := cfg.Input == config.InputHTML && cfg.WriteStaging
	stagingDir := ""
	if staging {
		stagingDir = cfg.StagingDir
	}
	files, err := store.NewFileStore(cfg.OutputDir, stagingDir, cfg.StagingMarkdown)
	if err != nil {
		return err
	}

	sinks := []pipeline.Sink{files}
	var repo *store.DocumentRepo
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo = store.NewDocumentRepo(pool, cfg.Source)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, repo)
	}

	var workbook *store.WorkbookSink
	if cfg.Workbook != "" {
		workbook = store.NewWorkbookSink()
		sinks = append(sinks, workbook)
	}

	runner := pipeline.NewRunner(extractor, sinks...)
	runner.SetWorkers(cfg.Workers)
	runner.SetTableTimeout(cfg.TableTimeout.Duration)
	if staging {
		runner.SetStager(files)
	}
	registry := prometheus.NewRegistry()
	if cfg.MetricsFile != "" {
		runner.SetMetrics(pipeline.NewMetrics(registry))
	}

	summary, err := runner.Run(ctx, tables)
	if err != nil {
		return err
	}
	summary.Print(os.Stdout)

	if repo != nil {
		stored, err := repo.GetDocuments(ctx, summary.RunID)
		if err != nil {
			log.Printf("Warning: failed to read back documents: %v", err)
		} else if len(stored) != summary.Succeeded {
			log.Printf("Warning: database holds %d documents for run %s, expected %d",
				len(stored), summary.RunID, summary.Succeeded)
		} else {
			fmt.Printf("  Persisted:        %d documents\n", len(stored))
		}
	}

	if workbook != nil {
		if err := workbook.Save(cfg.Workbook); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			log.Printf("Warning: failed to write metrics: %v", err)
		}
	}

	if cfg.Input == config.InputHTML && cfg.ClearStaging {
		if err := store.ClearDir(cfg.StagingDir); err != nil {
			log.Printf("Warning: failed to clear %s: %v", cfg.StagingDir, err)
		}
	}
	return nil
}

func readTables(ctx context.Context, cfg *config.Config) ([]*table.Table, error) {
	if cfg.Input == config.InputJSON {
		return ingest.ReadStaging(cfg.Source)
	}
	return ingest.NewSourceClient().ReadHTML(ctx, cfg.Source, cfg.Encoding)
}
