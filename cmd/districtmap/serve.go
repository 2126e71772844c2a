// CLAUDE:SUMMARY CLI subcommands serving artifact lookups over HTTP (with SIGHUP reload) and MCP stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyberkunju/NREGA-sub000/pkg/api"
	"github.com/cyberkunju/NREGA-sub000/pkg/kit"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	artifact := fs.String("artifact", "", "mapping artifact (overrides config output)")
	addr := fs.String("addr", "", "listen address (overrides config)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, newLogger("info", *verbose))
	if err != nil {
		return err
	}
	setString(&cfg.Output, *artifact)
	setString(&cfg.Addr, *addr)
	logger := newLogger(cfg.LogLevel, *verbose)

	svc, store, err := openService(cfg.Output, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: hot reload the artifact.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading artifact")
			if err := svc.Reload(); err != nil {
				logger.Error("reload failed, keeping previous artifact", "error", err)
			} else {
				logger.Info("artifact reloaded", "sha256", store.Hash(), "mapped", store.Summary().Mapped)
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("districtmap listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	artifact := fs.String("artifact", "out/mapping.json", "mapping artifact")
	fs.Parse(args)

	// stdout carries the protocol; logs go to stderr only.
	logger := newLogger("warn", false)
	svc, _, err := openService(*artifact, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = kit.ServeLines(ctx, api.NewMCPServer(svc, version), os.Stdin, os.Stdout, logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openService(artifact string, logger *slog.Logger) (*api.Service, *registry.Store, error) {
	store := registry.NewStore(artifact)
	if err := store.Load(); err != nil {
		return nil, nil, err
	}
	s := store.Summary()
	logger.Info("artifact loaded", "path", artifact, "mapped", s.Mapped, "excluded", s.Excluded, "collisions", s.Collisions)
	return api.NewService(store, api.NewMetrics(store), logger), store, nil
}
