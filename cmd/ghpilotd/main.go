// Command ghpilotd runs the repository-automation engine: it loads
// configuration, wires the platform client, dispatcher, and action
// executors, starts the ruleset hot-reload watcher, and serves the
// webhook HTTP endpoint. Wiring order is grounded on
// original_source/server/src/server.rs::run_server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nickmisasi/ghpilotd/internal/config"
	"github.com/nickmisasi/ghpilotd/internal/dispatcher"
	"github.com/nickmisasi/ghpilotd/internal/executors"
	"github.com/nickmisasi/ghpilotd/internal/httpapi"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/platform"
	"github.com/nickmisasi/ghpilotd/internal/reload"
	"github.com/nickmisasi/ghpilotd/internal/rules"
	"github.com/nickmisasi/ghpilotd/internal/webhook"
)

// keepAliveTimeout matches the original server's 600s keep-alive window.
const keepAliveTimeout = 600 * time.Second

func main() {
	_, verbose := os.LookupEnv("GH_PILOT_DEBUG")
	logger := log.NewStdLogger(verbose)

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("configuration error: %v", err)
		os.Exit(1)
	}

	client := platform.NewClient(cfg.Username, cfg.AuthToken, logger)

	closureExec := executors.NewClosureExecutor(logger)
	platformExec := executors.NewPlatformExecutor(client, logger)

	d := dispatcher.New(closureExec, platformExec, nil, logger)
	autoMergeExec := executors.NewAutoMergeExecutor(client, d, logger)
	d.SetAutoMergeExecutor(autoMergeExec)

	numSubs, err := d.ReplaceSubscriptions(rules.DefaultSubscriptions())
	if err != nil {
		logger.Errorf("could not load default subscriptions: %v", err)
		os.Exit(1)
	}
	logger.Infof("%d subscriptions loaded", numSubs)

	watcher, err := reload.New(cfg.RulesetPath, d, logger)
	if err != nil {
		logger.Errorf("could not create ruleset watcher: %v", err)
		os.Exit(1)
	}
	numRules, err := watcher.Start()
	if err != nil {
		logger.Errorf("could not start ruleset watcher: %v", err)
	}
	logger.Infof("%d rules loaded", numRules)
	defer watcher.Close()

	handler := webhook.New(cfg.WebhookSecret, d, logger)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		IdleTimeout: keepAliveTimeout,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}
}
