package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/auth"
	"github.com/FloScythe/fitness-rpg/internal/config"
	mcpserver "github.com/FloScythe/fitness-rpg/internal/mcp"
	"github.com/FloScythe/fitness-rpg/internal/server"
	"github.com/FloScythe/fitness-rpg/internal/session"
	"github.com/FloScythe/fitness-rpg/internal/store"
	"github.com/FloScythe/fitness-rpg/internal/syncer"
	mcptransport "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional, defaults apply)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FitnessRPG starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Data.DatabasePath(), log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	seeded, err := st.SeedExercises(ctx, store.DefaultCatalog())
	if err != nil {
		log.Error("failed to seed exercise catalog", "error", err)
		os.Exit(1)
	}
	if seeded > 0 {
		log.Info("seeded exercise catalog", "exercises", seeded)
	}

	user, err := st.EnsureUser(ctx, cfg.Data.Username)
	if err != nil {
		log.Error("failed to ensure profile", "error", err)
		os.Exit(1)
	}
	log.Info("profile ready", "username", user.Username, "level", user.Level, "xp", user.TotalXP)

	authSes, err := auth.NewSession(cfg.Sync.ServerURL, cfg.Data.Dir, log)
	if err != nil {
		log.Error("failed to init auth session", "error", err)
		os.Exit(1)
	}

	syncOpts := syncer.DefaultOptions()
	if cfg.Sync.Interval > 0 {
		syncOpts.Interval = cfg.Sync.Interval
	}
	if cfg.Sync.BaseDelay > 0 {
		syncOpts.BaseDelay = cfg.Sync.BaseDelay
	}
	if cfg.Sync.MaxAttempts > 0 {
		syncOpts.MaxAttempts = cfg.Sync.MaxAttempts
	}
	probe := syncer.ProbeFunc(func() bool { return cfg.Sync.ServerURL != "" })
	syncMgr := syncer.New(st, syncer.NewClient(cfg.Sync.ServerURL, authSes), authSes, probe, syncOpts, log)
	if cfg.Sync.ServerURL != "" {
		go syncMgr.Run(ctx)
	}

	machine := session.New(st, log)

	if *mcpStdio {
		mcpSrv := mcpserver.New(st, syncMgr, Version, log)
		if err := mcptransport.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(st, machine, syncMgr, authSes, log)

	// Serve over tsnet or plain TCP.
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
