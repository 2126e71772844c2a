package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cyberkunju/NREGA-sub000/pkg/rundb"
)

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	runsDB := fs.String("runs-db", "", "run ledger path (overrides config)")
	limit := fs.Int("limit", 20, "number of runs to show, 0 for all")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, newLogger("info", false))
	if err != nil {
		return err
	}
	setString(&cfg.RunsDB, *runsDB)
	if _, err := os.Stat(cfg.RunsDB); err != nil {
		return fmt.Errorf("run ledger %s: %w", cfg.RunsDB, err)
	}

	db, err := rundb.Open(cfg.RunsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.List(context.Background(), *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMAPPED\tEXCLUDED\tCOLLISIONS\tCOVERAGE\tSHA256")
	for i, r := range runs {
		marker := ""
		if i+1 < len(runs) && runs[i+1].ArtifactHash != r.ArtifactHash {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%d\t%.2f%%\t%s%s\n",
			short(r.ID, 8), r.StartedAt.Format("2006-01-02 15:04:05"), r.Mapped, r.TotalSource,
			r.Excluded, r.Collisions, r.Coverage, short(r.ArtifactHash, 12), marker)
	}
	return tw.Flush()
}

func short(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
