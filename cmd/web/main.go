// Command sweet-web serves the sweetshop browser front end.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/api"
	"github.com/adesaini/sweetshop-client/internal/catalog"
	"github.com/adesaini/sweetshop-client/internal/config"
	"github.com/adesaini/sweetshop-client/internal/session"
	"github.com/adesaini/sweetshop-client/internal/view"
	"github.com/adesaini/sweetshop-client/internal/web"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, wires the client packages together and serves
// the front end until interrupted.
func main() {
	addr := flag.String("addr", "", "listen address (overrides config)")
	server := flag.String("server", "", "backend base URL (overrides config)")
	configFile := flag.String("config", "", "config file (yaml)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	loader, err := config.Load(*configFile, logger)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *configFile != "" {
		loader.EnableHotReload()
		loader.Subscribe(func(cfg *config.Config) {
			logger.Info("configuration reloaded", zap.String("server_url", cfg.ServerURL))
		})
	}
	cfg := loader.Get()
	if *addr == "" {
		*addr = cfg.ListenAddr
	}
	if *server == "" {
		*server = cfg.ServerURL
	}

	var store *session.Store
	client := api.New(*server, cfg.Timeout, api.TokenFunc(func() string { return store.Token() }), logger)
	store = session.New(client, cfg.SessionDir, logger)

	cat := catalog.New(client, logger)
	ctrl := view.New(client, cat, logger)

	srv, err := web.NewServer(store, cat, ctrl, logger)
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: *addr, Handler: srv.Engine()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr), zap.String("backend", *server))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
