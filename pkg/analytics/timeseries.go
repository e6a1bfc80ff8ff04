package analytics

import (
	"regexp"
	"sort"

	"weibolens/pkg/weibo"
)

// TimeSeriesPoint is one day's post count.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

var canonicalDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// PostTimeSeries buckets posts by their canonical date and returns one point
// per observed day in ascending date order. Posts whose date is not in
// canonical YYYY-MM-DD form are excluded rather than guessed at.
func PostTimeSeries(posts []weibo.Post) []TimeSeriesPoint {
	buckets := make(map[string]int)
	for _, post := range posts {
		if !canonicalDatePattern.MatchString(post.CreatedAt) {
			continue
		}
		buckets[post.CreatedAt]++
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TimeSeriesPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, TimeSeriesPoint{Date: date, Count: buckets[date]})
	}
	return points
}
