package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
)

// cmdCheck verifies that the configured inputs are reachable before a pass,
// so a scheduled run fails early on a moved download URL.
func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	source := fs.String("source", "", "source catalog path or URL (overrides config)")
	target := fs.String("target", "", "target catalog path or URL (overrides config)")
	fs.Parse(args)

	logger := newLogger("info", false)
	cfg, err := loadConfig(*cfgPath, logger)
	if err != nil {
		return err
	}
	setString(&cfg.Source, *source)
	setString(&cfg.Target, *target)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	inputs := []struct{ name, path string }{
		{"source", cfg.Source},
		{"target", cfg.Target},
		{"overrides", cfg.Overrides},
	}
	var failed int
	for _, in := range inputs {
		if in.path == "" {
			if in.name != "overrides" {
				logger.Warn("input not configured", "input", in.name)
				failed++
			}
			continue
		}
		status, err := catalog.Probe(ctx, in.path)
		if err != nil {
			logger.Warn("input unreachable", "input", in.name, "path", in.path, "status", status, "error", err)
			failed++
			continue
		}
		logger.Info("input reachable", "input", in.name, "path", in.path, "status", status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs unreachable", failed, len(inputs))
	}
	return nil
}
