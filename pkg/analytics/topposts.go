package analytics

import (
	"sort"

	"weibolens/pkg/weibo"
)

// TopPostCount is how many leaders each engagement axis reports.
const TopPostCount = 3

// TopPostsResult holds the engagement leaders along each axis.
type TopPostsResult struct {
	ByAttitudes []weibo.Post `json:"by_attitudes"`
	ByComments  []weibo.Post `json:"by_comments"`
	ByReposts   []weibo.Post `json:"by_reposts"`
}

// TopPosts ranks posts by each engagement metric independently and keeps the
// top three per axis. Sorting is stable, so posts tied on a metric stay in
// their input order. Fewer than three posts yields shorter lists.
func TopPosts(posts []weibo.Post) TopPostsResult {
	return TopPostsResult{
		ByAttitudes: topBy(posts, func(p weibo.Post) int { return p.AttitudesCount }),
		ByComments:  topBy(posts, func(p weibo.Post) int { return p.CommentsCount }),
		ByReposts:   topBy(posts, func(p weibo.Post) int { return p.RepostsCount }),
	}
}

func topBy(posts []weibo.Post, metric func(weibo.Post) int) []weibo.Post {
	ranked := make([]weibo.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]) > metric(ranked[j])
	})
	if len(ranked) > TopPostCount {
		ranked = ranked[:TopPostCount]
	}
	return ranked
}
