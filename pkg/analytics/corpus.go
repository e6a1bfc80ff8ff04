package analytics

import (
	"weibolens/pkg/storage"
	"weibolens/pkg/weibo"
)

// Analyzer bundles the tokenizer and stop-word set so callers run every
// analysis against the same text pipeline.
type Analyzer struct {
	tokenizer Tokenizer
	stop      StopWordSet
	maxWords  int
}

// NewAnalyzer creates an analyzer with the default tokenizer.
func NewAnalyzer(stopWords []string, maxCloudWords int) *Analyzer {
	return &Analyzer{
		tokenizer: NewTokenizer(),
		stop:      NewStopWordSet(stopWords),
		maxWords:  maxCloudWords,
	}
}

// SetTokenizer swaps the segmentation strategy.
func (a *Analyzer) SetTokenizer(t Tokenizer) {
	if t != nil {
		a.tokenizer = t
	}
}

// tokenizeAll segments every post text into a token document with stop words
// removed. Every analysis consumes this one filtered stream.
func (a *Analyzer) tokenizeAll(posts []weibo.Post) [][]string {
	docs := make([][]string, 0, len(posts))
	for _, post := range posts {
		docs = append(docs, FilterTokens(a.tokenizer.Tokenize(post.Text), a.stop))
	}
	return docs
}

// NGrams returns the k most frequent n-token phrases in the posts' text.
func (a *Analyzer) NGrams(posts []weibo.Post, n, k int) NGramResult {
	return TopNGrams(a.tokenizeAll(posts), n, k)
}

// WordCloud returns the capped token frequency table for the posts' text.
func (a *Analyzer) WordCloud(posts []weibo.Post) map[string]int {
	return WordFrequencies(a.tokenizeAll(posts), a.stop, a.maxWords)
}

// TimeSeries returns daily post counts in ascending date order.
func (a *Analyzer) TimeSeries(posts []weibo.Post) []TimeSeriesPoint {
	return PostTimeSeries(posts)
}

// TopPosts returns the engagement leaders along each metric.
func (a *Analyzer) TopPosts(posts []weibo.Post) TopPostsResult {
	return TopPosts(posts)
}

// The corpus variants run an analysis over every session CSV under a
// directory, the layout the crawler writes.

// NGramsFromCorpus ranks n-gram phrases across a corpus directory.
func (a *Analyzer) NGramsFromCorpus(dir string, n, k int) (NGramResult, error) {
	posts, err := storage.ReadCorpus(dir)
	if err != nil {
		return NGramResult{}, err
	}
	return a.NGrams(posts, n, k), nil
}

// WordFrequencyFromCorpus builds the capped frequency table for a corpus
// directory.
func (a *Analyzer) WordFrequencyFromCorpus(dir string) (map[string]int, error) {
	posts, err := storage.ReadCorpus(dir)
	if err != nil {
		return nil, err
	}
	return a.WordCloud(posts), nil
}

// TimeSeriesFromCorpus buckets a corpus directory's posts by day.
func (a *Analyzer) TimeSeriesFromCorpus(dir string) ([]TimeSeriesPoint, error) {
	posts, err := storage.ReadCorpus(dir)
	if err != nil {
		return nil, err
	}
	return a.TimeSeries(posts), nil
}

// TopPostsFromCorpus ranks a corpus directory's posts by engagement.
func (a *Analyzer) TopPostsFromCorpus(dir string) (TopPostsResult, error) {
	posts, err := storage.ReadCorpus(dir)
	if err != nil {
		return TopPostsResult{}, err
	}
	return a.TopPosts(posts), nil
}
