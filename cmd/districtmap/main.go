package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/matcher"
)

var version = "dev"

type config struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Overrides string `yaml:"overrides"`
	Output    string `yaml:"output"`
	Report    string `yaml:"report"`
	RunsDB    string `yaml:"runs_db"`
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	Workers   int    `yaml:"workers"`

	Matcher matcher.Config `yaml:"matcher"`
	Catalog struct {
		Source catalog.Spec `yaml:"source"`
		Target catalog.Spec `yaml:"target"`
	} `yaml:"catalog"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "reconcile":
		err = cmdReconcile(os.Args[2:])
	case "lookup":
		err = cmdLookup(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "districtmap %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: districtmap <command> [flags]

Commands:
  reconcile   Match the source catalog against the boundary catalog and write the mapping artifact
  lookup      Resolve one (state, district) pair from an existing artifact
  serve       Serve artifact lookups over HTTP
  mcp         Serve artifact lookups as MCP tools on stdio
  history     List past reconciliation runs
  check       Verify that the configured catalogs are reachable
  version     Print the version
`)
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func defaultConfig() config {
	cfg := config{
		Output:   "out/mapping.json",
		Report:   "out/report.txt",
		RunsDB:   "out/runs.db",
		Addr:     ":8420",
		LogLevel: "info",
		Matcher:  matcher.DefaultConfig(),
	}
	cfg.Catalog.Source = catalog.DefaultSourceSpec()
	cfg.Catalog.Target = catalog.DefaultTargetSpec()
	return cfg
}

// loadConfig reads the YAML config over the defaults. A missing file is not
// an error; a malformed one is.
func loadConfig(path string, logger *slog.Logger) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
