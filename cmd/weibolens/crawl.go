package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"weibolens/pkg/crawler"
	"weibolens/pkg/logger"
)

var (
	// Crawl command flags
	crawlKeyword   string
	crawlUserID    string
	crawlMaxCount  int
	crawlSinceDate string
	crawlOutput    string
	crawlMock      bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect posts for a keyword or user id",
	Long: `Collect posts from a Weibo keyword search or a user timeline and store
them as a CSV file under the output directory.

Exactly one of --keyword and --user-id must be given. The crawl stops when it
has collected --max-count posts, when it reaches a post older than
--since-date, or when the result set is exhausted.`,
	Example: `  # Collect up to 100 posts mentioning a keyword
  weibolens crawl --keyword 世界杯 --max-count 100

  # Collect a user's posts from this year
  weibolens crawl --user-id 1669879400 --since-date 2026-01-01

  # Develop against the canned client
  weibolens crawl --keyword demo --mock`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&crawlKeyword, "keyword", "k", "", "keyword to search for")
	crawlCmd.Flags().StringVarP(&crawlUserID, "user-id", "u", "", "numeric user id to crawl")
	crawlCmd.Flags().IntVarP(&crawlMaxCount, "max-count", "n", 0, "maximum number of posts to collect")
	crawlCmd.Flags().StringVar(&crawlSinceDate, "since-date", "", "oldest post date, YYYY-MM-DD or days back from today")
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "output directory (default from config)")
	crawlCmd.Flags().BoolVar(&crawlMock, "mock", false, "use the canned upstream client")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	keyword := strings.TrimSpace(crawlKeyword)
	userID := strings.TrimSpace(crawlUserID)
	if (keyword == "") == (userID == "") {
		return fmt.Errorf("exactly one of --keyword and --user-id must be given")
	}

	flags := map[string]interface{}{}
	if crawlOutput != "" {
		flags["output"] = crawlOutput
	}
	if crawlMock {
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

	maxCount := crawlMaxCount
	if maxCount <= 0 {
		maxCount = cfg.Crawl.MaxCount
	}
	since, err := crawler.ParseSinceDate(crawlSinceDate)
	if err != nil {
		return err
	}

	target := keyword
	if target == "" {
		target = userID
	}
	opts := crawler.Options{
		MaxCount:   maxCount,
		SinceDate:  since,
		OutputPath: store.PathFor(target),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var count int
	if keyword != "" {
		count, err = ctrl.CrawlByKeyword(ctx, keyword, opts)
	} else {
		count, err = ctrl.CrawlByUserID(ctx, userID, opts)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("crawl failed")
		return err
	}

	fmt.Printf("collected %d posts into %s\n", count, opts.OutputPath)
	return nil
}
