package weibo

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the mobile Weibo endpoint all page requests go to.
	DefaultBaseURL = "https://m.weibo.cn"

	// IndexEndpoint is the single paginated GET endpoint; the containerid
	// parameter selects which content facet a request targets.
	IndexEndpoint = "/api/container/getIndex"

	// DetailEndpoint is the page holding the full text of a long post.
	DetailEndpoint = "/detail"

	// ProfileContainerPrefix selects a user's profile metadata.
	ProfileContainerPrefix = "100505"

	// TimelineContainerPrefix selects a user's post timeline.
	TimelineContainerPrefix = "230413"

	// SearchContainerPrefix selects keyword search results.
	SearchContainerPrefix = "100103type=1&q="

	// PostsPerPage is the number of posts the upstream returns per timeline
	// page, used to bound the page walk from a profile's post total.
	PostsPerPage = 10
)

// ProfileURL constructs the URL for fetching a user's profile metadata.
func ProfileURL(baseURL, userID string) string {
	params := url.Values{}
	params.Set("containerid", ProfileContainerPrefix+userID)

	return fmt.Sprintf("%s%s?%s", baseURL, IndexEndpoint, params.Encode())
}

// TimelineURL constructs the URL for one page of a user's timeline.
func TimelineURL(baseURL, userID string, page int) string {
	params := url.Values{}
	params.Set("containerid", TimelineContainerPrefix+userID)
	params.Set("page", fmt.Sprintf("%d", page))

	return fmt.Sprintf("%s%s?%s", baseURL, IndexEndpoint, params.Encode())
}

// SearchURL constructs the URL for one page of keyword search results.
func SearchURL(baseURL, keyword string, page int) string {
	params := url.Values{}
	params.Set("containerid", SearchContainerPrefix+keyword)
	params.Set("page_type", "searchall")
	params.Set("page", fmt.Sprintf("%d", page))

	return fmt.Sprintf("%s%s?%s", baseURL, IndexEndpoint, params.Encode())
}

// DetailURL constructs the URL for a post's detail page, fetched when the
// inline text is truncated.
func DetailURL(baseURL, postID string) string {
	return fmt.Sprintf("%s%s/%s", baseURL, DetailEndpoint, url.PathEscape(postID))
}

// PageBound returns the number of pages needed for the smaller of postTotal
// and maxCount, rounded up to whole pages.
func PageBound(postTotal, maxCount int) int {
	byTotal := (postTotal + PostsPerPage - 1) / PostsPerPage
	byMax := (maxCount + PostsPerPage - 1) / PostsPerPage
	if byTotal < byMax {
		return byTotal
	}
	return byMax
}
