package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"weibolens/internal/server"
	"weibolens/pkg/logger"
)

var (
	// Serve command flags
	serveAddr string
	serveMock bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose crawling and analysis over a JSON HTTP API",
	Long: `Start an HTTP server exposing the crawl and analysis operations as a
JSON API, plus Prometheus metrics when enabled.

Endpoints:
  POST /api/crawl                start a crawl and wait for its result
  POST /api/analyze              crawl and analyze in one call
  POST /api/analyze/ngram        top n-gram phrases
  POST /api/analyze/wordcloud    capped word frequency table
  POST /api/analyze/timeseries   daily post counts
  POST /api/analyze/topposts     engagement leaders per metric
  GET  /api/test                 liveness check
  GET  /metrics                  Prometheus metrics`,
	Example: `  weibolens serve --addr :8080

  # Serve against the canned upstream client
  weibolens serve --mock`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveMock, "mock", false, "use the canned upstream client")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if serveAddr != "" {
		flags["addr"] = serveAddr
	}
	if serveMock {
		flags["mock"] = true
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctrl, store, err := buildController(cfg)
	if err != nil {
		return err
	}

	srv := server.New(ctrl, store, buildAnalyzer(cfg), cfg.Server.Addr, cfg.Server.EnableMetrics, logger.GetLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
