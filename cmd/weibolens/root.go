package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"weibolens/pkg/analytics"
	"weibolens/pkg/config"
	"weibolens/pkg/crawler"
	"weibolens/pkg/logger"
	"weibolens/pkg/ratelimit"
	"weibolens/pkg/storage"
	"weibolens/pkg/weibo"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weibolens",
	Short: "Crawl Weibo posts and analyze their text",
	Long: `weibolens collects posts from Weibo keyword searches and user timelines,
stores them as CSV, and runs text analyses over the collected corpus.

Commands:
  crawl    collect posts for a keyword or user id
  analyze  run n-gram, word cloud, time series, and top-post analyses
  serve    expose crawling and analysis over a JSON HTTP API`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .weibolens.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`weibolens {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the layered configuration and initializes the global
// logger from it.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildClient selects the live or mock upstream client.
func buildClient(cfg *config.Config) weibo.Client {
	if cfg.API.UseMock {
		logger.GetLogger().Warn("using mock upstream client")
		return weibo.NewMockClient()
	}
	return weibo.NewHTTPClient(weibo.ClientOptions{
		BaseURL:           cfg.API.BaseURL,
		UserAgent:         cfg.API.UserAgent,
		Cookie:            cfg.API.Cookie,
		Timeout:           cfg.API.RequestTimeout,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	}, logger.GetLogger())
}

// buildController wires the crawl pipeline from configuration.
func buildController(cfg *config.Config) (*crawler.Controller, *storage.Manager, error) {
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.CreateTargetFolders)
	if err != nil {
		return nil, nil, err
	}

	client := buildClient(cfg)
	parser := weibo.NewParser(weibo.NewDateNormalizer(log), client, log)

	var delayer ratelimit.Delayer
	if cfg.API.UseMock {
		delayer = ratelimit.NopDelayer{}
	} else {
		delayer = ratelimit.NewUniformDelayer(
			cfg.Crawl.PreRequestDelayMin, cfg.Crawl.PreRequestDelayMax,
			cfg.Crawl.PostPageDelayMin, cfg.Crawl.PostPageDelayMax,
		)
	}

	ctrl := crawler.New(client, parser, delayer, store, log)
	ctrl.SetPageCap(cfg.Crawl.PageCap)
	return ctrl, store, nil
}

// buildAnalyzer creates the analyzer from configuration.
func buildAnalyzer(cfg *config.Config) *analytics.Analyzer {
	return analytics.NewAnalyzer(cfg.Analysis.StopWords, cfg.Analysis.MaxCloudWords)
}
