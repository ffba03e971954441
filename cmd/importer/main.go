// Command importer builds the Italian lexicon store from offline dumps:
// Wiktextract (lemmas, inflections, glosses, form-of records), Morph-it!
// (written spellings), ItWaC (lemma frequencies) and Tatoeba (sentences).
//
// Flags:
//
//	--phase            comma-separated list of phases to run (default: all)
//	--dry-run          parse sources without touching the database
//	--importer-config  path to importer YAML config file
//	--progress         render a progress bar per phase
//	--migrate          apply pending schema migrations before importing
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/italian-lexicon/internal/adapter/postgres"
	"github.com/heartmarshall/italian-lexicon/internal/adapter/postgres/lexicon"
	"github.com/heartmarshall/italian-lexicon/internal/app"
	"github.com/heartmarshall/italian-lexicon/internal/app/importer"
	"github.com/heartmarshall/italian-lexicon/internal/config"
	"github.com/heartmarshall/italian-lexicon/internal/orthography"
	"github.com/heartmarshall/italian-lexicon/migrations"
)

// Compile-time interface assertions.
var (
	_ importer.LexiconRepo = (*lexicon.Repo)(nil)
	_ importer.TxRunner    = (*postgres.TxManager)(nil)
)

func main() {
	phaseFlag := flag.String("phase", "", "comma-separated phases to run (default: all)")
	dryRunFlag := flag.Bool("dry-run", false, "parse sources without writing to DB")
	importerConfigFlag := flag.String("importer-config", "", "path to importer YAML config file")
	progressFlag := flag.Bool("progress", false, "show progress bars")
	migrateFlag := flag.Bool("migrate", false, "apply schema migrations before importing")
	flag.Parse()

	// Load app config (DB connection, logging).
	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)
	logger.Info("starting importer", slog.String("version", app.BuildVersion()))

	importerCfg, err := importer.LoadConfig(*importerConfigFlag)
	if err != nil {
		logger.Error("load importer config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CLI flags override config.
	if *dryRunFlag {
		importerCfg.DryRun = true
	}

	var phases []string
	if *phaseFlag != "" {
		for _, p := range strings.Split(*phaseFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				phases = append(phases, p)
			}
		}
	}

	engine, err := orthography.NewEngine()
	if err != nil {
		logger.Error("load orthography rules", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 30-minute context timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, appCfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if *migrateFlag {
		if err := postgres.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Error("apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	txm := postgres.NewTxManager(pool)
	repo := lexicon.New(pool)

	pipeline := importer.NewPipeline(logger, repo, txm, engine, *importerCfg)

	var bars *progressObserver
	if *progressFlag {
		bars = newProgressObserver()
		pipeline.SetObserver(bars)
	}

	runErr := pipeline.Run(ctx, phases)
	if bars != nil {
		bars.Stop()
	}
	if runErr != nil {
		logger.Error("pipeline failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	printSummary(os.Stdout, pipeline.Results(), importer.AllPhases())

	if pipeline.HasErrors() {
		logger.Warn("pipeline completed with errors")
		os.Exit(1)
	}

	logger.Info("pipeline completed successfully")
}
