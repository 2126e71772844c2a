// CLAUDE:SUMMARY CLI subcommand running one reconciliation pass: load catalogs, match, write artifact and report, record the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cyberkunju/NREGA-sub000/pkg/reconcile"
	"github.com/cyberkunju/NREGA-sub000/pkg/rundb"
)

func cmdReconcile(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	source := fs.String("source", "", "source catalog path or URL (overrides config)")
	target := fs.String("target", "", "target catalog path or URL (overrides config)")
	overrides := fs.String("overrides", "", "curated overrides file (overrides config)")
	output := fs.String("output", "", "artifact output path (overrides config)")
	report := fs.String("report", "", "text report path (overrides config)")
	runsDB := fs.String("runs-db", "", "run ledger path, \"-\" to disable (overrides config)")
	workers := fs.Int("workers", -1, "resolve states on n goroutines, 0 for sequential (overrides config)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	boot := newLogger("info", *verbose)
	cfg, err := loadConfig(*cfgPath, boot)
	if err != nil {
		return err
	}
	setString(&cfg.Source, *source)
	setString(&cfg.Target, *target)
	setString(&cfg.Overrides, *overrides)
	setString(&cfg.Output, *output)
	setString(&cfg.Report, *report)
	setString(&cfg.RunsDB, *runsDB)
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	logger := newLogger(cfg.LogLevel, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	in, err := reconcile.LoadInputs(ctx, reconcile.Paths{
		Source:     cfg.Source,
		Target:     cfg.Target,
		Overrides:  cfg.Overrides,
		SourceSpec: cfg.Catalog.Source,
		TargetSpec: cfg.Catalog.Target,
	})
	if err != nil {
		return err
	}
	logger.Info("catalogs loaded", "source", len(in.Sources), "target", len(in.Targets), "aliases", in.Aliases.Len())

	out, err := reconcile.Run(ctx, in, reconcile.Options{
		Matcher: cfg.Matcher,
		Workers: cfg.Workers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	hash, err := reconcile.Emit(out, cfg.Output, cfg.Report)
	if err != nil {
		return err
	}
	logger.Info("artifact written", "path", cfg.Output, "sha256", hash[:12], "report", cfg.Report)

	if cfg.RunsDB == "" || cfg.RunsDB == "-" {
		return nil
	}
	if err := recordRun(ctx, cfg, out, hash, started); err != nil {
		// The artifact is already in place; a ledger failure is not fatal.
		logger.Warn("run not recorded", "runs_db", cfg.RunsDB, "error", err)
	}
	return nil
}

func recordRun(ctx context.Context, cfg config, out *reconcile.Outcome, hash string, started time.Time) error {
	if err := os.MkdirAll(filepath.Dir(cfg.RunsDB), 0o755); err != nil {
		return err
	}
	db, err := rundb.Open(cfg.RunsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	changed, err := db.Changed(ctx, hash)
	if err != nil {
		return err
	}
	s := out.Artifact.Summary
	run, err := db.Record(ctx, rundb.Run{
		StartedAt:     started,
		FinishedAt:    time.Now(),
		SourcePath:    cfg.Source,
		TargetPath:    cfg.Target,
		OverridesPath: cfg.Overrides,
		ArtifactPath:  cfg.Output,
		ArtifactHash:  hash,
		TotalSource:   s.TotalSource,
		TotalTarget:   s.TotalTarget,
		Mapped:        s.Mapped,
		Excluded:      s.Excluded,
		Collisions:    s.Collisions,
		Coverage:      s.CoveragePercent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "run %s: %d/%d mapped (%.2f%%), %d excluded, %d collisions, artifact changed: %v\n",
		run.ID, s.Mapped, s.TotalSource, s.CoveragePercent, s.Excluded, s.Collisions, changed)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
