package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpromhub/rpromhub/internal/collector"
	"github.com/rpromhub/rpromhub/internal/config"
	"github.com/rpromhub/rpromhub/internal/fetcher"
	"github.com/rpromhub/rpromhub/internal/handler"
	"github.com/rpromhub/rpromhub/internal/store"
	"github.com/rpromhub/rpromhub/internal/target"
)

func main() {
	configPath := flag.String("config", "/etc/rpromhub/settings.yaml", "path to config file")
	debug := flag.Bool("debug", false, "log per-scrape and per-branch details")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("rpromhub starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	targets := cfg.Targets()
	slog.Info("config loaded",
		"addr", cfg.Addr,
		"api_url", cfg.APIURL,
		"targets", len(targets),
	)
	if len(targets) == 0 {
		slog.Warn("no branches configured, scrapes will return an empty body")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The default client has no timeout; a hung upstream call holds its scrape.
	f, err := fetcher.New(cfg.APIURL, cfg.UserAgent, nil)
	if err != nil {
		slog.Error("failed to build fetcher", "err", err)
		os.Exit(1)
	}

	reg := target.NewRegistry(targets)
	st := store.New()
	h := handler.New(reg, collector.New(f, st), st)

	// Hot-reload swaps the target list only. Listen address and upstream
	// settings need a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			if updated.Addr != cfg.Addr || updated.APIURL != cfg.APIURL || updated.UserAgent != cfg.UserAgent {
				slog.Warn("config: addr, api_url and user_agent changes need a restart")
			}
			reg.Replace(updated.Targets())
			slog.Info("targets replaced", "targets", reg.Len())
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Addr, "err", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{Handler: h}
	go func() {
		slog.Info("HTTP server listening", "addr", lis.Addr().String())
		if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("rpromhub shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
