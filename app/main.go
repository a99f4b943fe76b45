package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cai-yang/arrs-rss-converter/app/api"
	"github.com/cai-yang/arrs-rss-converter/app/cfg"
	"github.com/cai-yang/arrs-rss-converter/app/feed"
	"github.com/cai-yang/arrs-rss-converter/app/rules"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting RSS Converter server", "version", appCfg.Version, "source", appCfg.SourceURL)

	// Build the conversion rule set; the engine is frozen before the
	// first request is served
	engine, err := rules.Load(appCfg.RulesFile, appCfg.DefaultPriority)
	if err != nil {
		log.Fatalf("Failed to load conversion rules: %v", err)
	}
	slog.Info("Conversion rules loaded", "count", engine.Len())

	// Initialize core components
	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, appCfg.SourceURL, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)
	rewriter := feed.NewRewriter(engine)
	inspector := feed.NewInspector()

	// Initialize HTTP server
	handler := api.NewHandler(engine, fetcher, rewriter, inspector)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         appCfg.Host + ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		slog.Info("Endpoints available",
			"feed", fmt.Sprintf("http://localhost:%s/rss.xml", appCfg.Port),
			"health", fmt.Sprintf("http://localhost:%s/health", appCfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("RSS Converter server shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}
