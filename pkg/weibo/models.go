package weibo

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Envelope is the top-level response for every container request.
type Envelope struct {
	Ok   int  `json:"ok"`
	Data Data `json:"data"`
}

// Data wraps the cards and, for profile requests, the user info.
type Data struct {
	Cards    []Card   `json:"cards"`
	UserInfo UserInfo `json:"userInfo"`
}

// UserInfo is the profile metadata returned by a profile container request.
type UserInfo struct {
	ID             int64  `json:"id"`
	ScreenName     string `json:"screen_name"`
	StatusesCount  int    `json:"statuses_count"`
	FollowersCount int    `json:"followers_count"`
	FollowCount    int    `json:"follow_count"`
	Description    string `json:"description"`
}

// Card is one upstream JSON unit. Timeline pages carry post cards (type 9)
// directly; keyword search pages nest them inside group cards (type 11).
type Card struct {
	CardType  int    `json:"card_type"`
	MBlog     *MBlog `json:"mblog"`
	CardGroup []Card `json:"card_group"`
}

const (
	// CardTypePost marks a card holding a post record.
	CardTypePost = 9
	// CardTypeGroup marks a search-result card wrapping a group of cards.
	CardTypeGroup = 11
)

// MBlog is the raw post record inside a post card.
type MBlog struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	User           MBlogUser `json:"user"`
	Pics           []Pic     `json:"pics"`
	PageInfo       *PageInfo `json:"page_info"`
	CreatedAt      string    `json:"created_at"`
	Source         string    `json:"source"`
	AttitudesCount Count     `json:"attitudes_count"`
	CommentsCount  Count     `json:"comments_count"`
	RepostsCount   Count     `json:"reposts_count"`
	IsLongText     bool      `json:"isLongText"`
}

// MBlogUser is the author block of a post record.
type MBlogUser struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
}

// Pic is one attached image with its large-size variant.
type Pic struct {
	URL   string   `json:"url"`
	Large PicLarge `json:"large"`
}

// PicLarge is the largest-resolution variant of an attached image.
type PicLarge struct {
	URL string `json:"url"`
}

// PageInfo carries attached media info; for video posts it holds the stream
// URLs in descending quality order.
type PageInfo struct {
	Type      string    `json:"type"`
	MediaInfo MediaInfo `json:"media_info"`
}

// MediaInfo lists the video stream candidates.
type MediaInfo struct {
	MP4720p string `json:"mp4_720p_mp4"`
	MP4HD   string `json:"mp4_hd_url"`
	MP4SD   string `json:"mp4_sd_url"`
}

// Count is an engagement counter that tolerates the upstream's habit of
// switching between numbers and display strings ("100万+"). Anything
// non-numeric decodes to zero rather than failing the record.
type Count int

// UnmarshalJSON implements lenient decoding for Count.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			*c = 0
			return nil
		}
		*c = Count(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil || n < 0 {
		*c = 0
		return nil
	}
	*c = Count(n)
	return nil
}

// Post is one normalized post. Immutable once parsed; owned by its crawl
// session until persisted.
type Post struct {
	ID             string
	UserID         string
	ScreenName     string
	Text           string
	Topics         []string
	Mentions       []string
	PicURLs        []string
	VideoURL       string
	CreatedAt      string // canonical YYYY-MM-DD
	Source         string
	AttitudesCount int
	CommentsCount  int
	RepostsCount   int
}
