package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weibolens/pkg/storage"
	"weibolens/pkg/weibo"
)

var (
	// Analyze command flags
	analyzeTarget string
	analyzeN      int
	analyzeK      int
	analyzeInput  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [ngram|wordcloud|timeseries|topposts]",
	Short: "Run a text analysis over collected posts",
	Long: `Run one of the text analyses over posts collected by the crawl command.
Results are printed as JSON.

With --target the analysis reads that target's CSV; otherwise it reads every
CSV under the output directory.`,
	Example: `  # Top bigrams across the whole corpus
  weibolens analyze ngram --n 2 --k 20

  # Word frequencies for one crawl target
  weibolens analyze wordcloud --target 世界杯

  # Daily post counts
  weibolens analyze timeseries`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"ngram", "wordcloud", "timeseries", "topposts"},
	RunE:      runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeTarget, "target", "t", "", "analyze a single crawl target")
	analyzeCmd.Flags().IntVar(&analyzeN, "n", 2, "n-gram window size")
	analyzeCmd.Flags().IntVar(&analyzeK, "k", 0, "number of results to keep (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "read a specific CSV file instead of the output directory")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{})
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.CreateTargetFolders)
	if err != nil {
		return err
	}

	var posts []weibo.Post
	switch {
	case analyzeInput != "":
		posts, err = storage.ReadPosts(analyzeInput)
	case analyzeTarget != "":
		posts, err = storage.ReadPosts(store.PathFor(analyzeTarget))
	default:
		posts, err = storage.ReadCorpus(store.BaseDir())
	}
	if err != nil {
		return err
	}

	analyzer := buildAnalyzer(cfg)
	k := analyzeK
	if k <= 0 {
		k = cfg.Analysis.TopK
	}

	var result interface{}
	switch args[0] {
	case "ngram":
		result = analyzer.NGrams(posts, analyzeN, k)
	case "wordcloud":
		result = analyzer.WordCloud(posts)
	case "timeseries":
		result = analyzer.TimeSeries(posts)
	case "topposts":
		result = analyzer.TopPosts(posts)
	default:
		return fmt.Errorf("unknown analysis: %s", args[0])
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(result)
}
