package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weibolens/pkg/analytics"
	"weibolens/pkg/crawler"
	"weibolens/pkg/errors"
	"weibolens/pkg/logger"
	"weibolens/pkg/storage"
	"weibolens/pkg/weibo"
)

// Server exposes crawling and analysis over a JSON HTTP API.
type Server struct {
	crawler  *crawler.Controller
	store    *storage.Manager
	analyzer *analytics.Analyzer
	logger   logger.Logger

	addr          string
	enableMetrics bool
}

// New creates a server wiring the crawl controller, storage manager, and
// analyzer together.
func New(ctrl *crawler.Controller, store *storage.Manager, analyzer *analytics.Analyzer, addr string, enableMetrics bool, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		crawler:       ctrl,
		store:         store,
		analyzer:      analyzer,
		logger:        log,
		addr:          addr,
		enableMetrics: enableMetrics,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/test", s.handleTest)
	mux.HandleFunc("/api/crawl", s.handleCrawl)
	mux.HandleFunc("/api/analyze", s.handleCrawlAndAnalyze)
	mux.HandleFunc("/api/analyze/ngram", s.handleNGram)
	mux.HandleFunc("/api/analyze/wordcloud", s.handleWordCloud)
	mux.HandleFunc("/api/analyze/timeseries", s.handleTimeSeries)
	mux.HandleFunc("/api/analyze/topposts", s.handleTopPosts)
	if s.enableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return s.withCORS(mux)
}

// ListenAndServe runs the server until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// withCORS allows browser frontends on other origins to call the API.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type crawlRequest struct {
	Keyword   string `json:"keyword"`
	UserID    string `json:"user_id"`
	MaxCount  int    `json:"max_count"`
	SinceDate string `json:"since_date"`
}

type crawlResponse struct {
	Target    string `json:"target"`
	PostCount int    `json:"post_count"`
	Output    string `json:"output"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MaxCount <= 0 {
		req.MaxCount = 50
	}

	since, err := crawler.ParseSinceDate(req.SinceDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target := req.Keyword
	if target == "" {
		target = req.UserID
	}
	opts := crawler.Options{
		MaxCount:   req.MaxCount,
		SinceDate:  since,
		OutputPath: s.store.PathFor(target),
	}

	var count int
	if req.Keyword != "" {
		count, err = s.crawler.CrawlByKeyword(r.Context(), req.Keyword, opts)
	} else {
		count, err = s.crawler.CrawlByUserID(r.Context(), req.UserID, opts)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.IsFatal(errors.TypeOf(err)) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, crawlResponse{
		Target:    target,
		PostCount: count,
		Output:    opts.OutputPath,
	})
}

type crawlAnalyzeRequest struct {
	crawlRequest
	N int `json:"n"`
	K int `json:"k"`
}

type crawlAnalyzeResponse struct {
	Crawl       crawlResponse         `json:"crawl"`
	NGrams      analytics.NGramResult `json:"ngrams"`
	Frequencies map[string]int        `json:"frequencies"`
}

// handleCrawlAndAnalyze runs a crawl and returns its text analyses in one
// call, the shape the original one-shot analysis endpoint had.
func (s *Server) handleCrawlAndAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req crawlAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MaxCount <= 0 {
		req.MaxCount = 50
	}
	if req.N <= 0 {
		req.N = 2
	}
	if req.K <= 0 {
		req.K = 20
	}

	since, err := crawler.ParseSinceDate(req.SinceDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target := req.Keyword
	if target == "" {
		target = req.UserID
	}
	opts := crawler.Options{
		MaxCount:   req.MaxCount,
		SinceDate:  since,
		OutputPath: s.store.PathFor(target),
	}

	var count int
	if req.Keyword != "" {
		count, err = s.crawler.CrawlByKeyword(r.Context(), req.Keyword, opts)
	} else {
		count, err = s.crawler.CrawlByUserID(r.Context(), req.UserID, opts)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.IsFatal(errors.TypeOf(err)) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}

	posts, err := storage.ReadPosts(opts.OutputPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, crawlAnalyzeResponse{
		Crawl:       crawlResponse{Target: target, PostCount: count, Output: opts.OutputPath},
		NGrams:      s.analyzer.NGrams(posts, req.N, req.K),
		Frequencies: s.analyzer.WordCloud(posts),
	})
}

type analyzeRequest struct {
	Target string `json:"target"`
	N      int    `json:"n"`
	K      int    `json:"k"`
}

// loadPosts resolves the request's corpus: one target's file, or every CSV
// under the storage root when no target is given.
func (s *Server) loadPosts(req analyzeRequest) ([]weibo.Post, error) {
	if req.Target != "" {
		return storage.ReadPosts(s.store.PathFor(req.Target))
	}
	return storage.ReadCorpus(s.store.BaseDir())
}

func (s *Server) decodeAnalyze(w http.ResponseWriter, r *http.Request) (analyzeRequest, []weibo.Post, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return analyzeRequest{}, nil, false
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return analyzeRequest{}, nil, false
	}
	posts, err := s.loadPosts(req)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return analyzeRequest{}, nil, false
	}
	return req, posts, true
}

func (s *Server) handleNGram(w http.ResponseWriter, r *http.Request) {
	req, posts, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	if req.N <= 0 {
		req.N = 2
	}
	if req.K <= 0 {
		req.K = 20
	}
	s.writeJSON(w, http.StatusOK, s.analyzer.NGrams(posts, req.N, req.K))
}

func (s *Server) handleWordCloud(w http.ResponseWriter, r *http.Request) {
	_, posts, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"frequencies": s.analyzer.WordCloud(posts),
	})
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	_, posts, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": s.analyzer.TimeSeries(posts),
	})
}

func (s *Server) handleTopPosts(w http.ResponseWriter, r *http.Request) {
	_, posts, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.analyzer.TopPosts(posts))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
