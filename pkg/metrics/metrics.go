package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CrawlRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weibolens_crawl_runs_total",
		Help: "Total crawl sessions by target kind",
	}, []string{"kind"})
	CrawlErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weibolens_crawl_errors_total",
		Help: "Total fatal crawl errors",
	})
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weibolens_pages_fetched_total",
		Help: "Total upstream pages fetched",
	})
	PageFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weibolens_page_failures_total",
		Help: "Total upstream page fetches that failed and were skipped",
	})
	PostsAccumulated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weibolens_posts_accumulated_total",
		Help: "Total posts accumulated across sessions",
	})
	RecordsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weibolens_records_skipped_total",
		Help: "Total malformed records skipped during parsing",
	})
	CrawlDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "weibolens_crawl_duration_seconds",
		Help:    "Crawl session duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		CrawlRuns, CrawlErrors, PagesFetched, PageFailures,
		PostsAccumulated, RecordsSkipped, CrawlDuration,
	)
}

// ObserveCrawlDuration records a session duration from its start time.
func ObserveCrawlDuration(start time.Time) {
	CrawlDuration.Observe(time.Since(start).Seconds())
}
