package weibo

import (
	"context"
	"fmt"

	"weibolens/pkg/errors"
)

// MockClient is a canned implementation of Client, selected by configuration
// instead of the live endpoint. It chunks a fixed record list into pages the
// way the upstream does.
type MockClient struct {
	// User is returned by FetchUserInfo; a nil value makes the lookup fail.
	User *UserInfo

	// Records is the reverse-chronological post feed served page by page.
	Records []*MBlog

	// LongTexts maps post id to the full text served for truncated posts.
	LongTexts map[string]string

	// PageSize overrides the upstream page size; zero means PostsPerPage.
	PageSize int

	// FailPages holds page indexes whose fetch returns a network error.
	FailPages map[int]bool
}

// NewMockClient returns a mock serving a small synthetic feed.
func NewMockClient() *MockClient {
	records := make([]*MBlog, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, &MBlog{
			ID:   fmt.Sprintf("50000000%02d", 25-i),
			Text: fmt.Sprintf("示例内容 #话题%d# 第%d条 sample post", i%3, i),
			User: MBlogUser{
				ID:         1669879400,
				ScreenName: "示例用户",
			},
			CreatedAt:      fmt.Sprintf("2025-07-%02d", 28-i),
			Source:         "weibolens mock",
			AttitudesCount: Count(100 - i),
			CommentsCount:  Count(50 - i),
			RepostsCount:   Count(25 - i),
		})
	}
	return &MockClient{
		User: &UserInfo{
			ID:             1669879400,
			ScreenName:     "示例用户",
			StatusesCount:  len(records),
			FollowersCount: 1024,
			FollowCount:    64,
		},
		Records: records,
	}
}

func (m *MockClient) pageSize() int {
	if m.PageSize > 0 {
		return m.PageSize
	}
	return PostsPerPage
}

// FetchUserInfo returns the configured profile or a not-found error.
func (m *MockClient) FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.User == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no such user: %s", userID)
	}
	info := *m.User
	return &info, nil
}

// FetchUserPage serves one timeline page of post cards.
func (m *MockClient) FetchUserPage(ctx context.Context, userID string, page int) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailPages[page] {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "injected failure for page %d", page)
	}

	cards := make([]Card, 0, m.pageSize())
	for _, record := range m.pageRecords(page) {
		cards = append(cards, Card{CardType: CardTypePost, MBlog: record})
	}
	return &Envelope{Ok: 1, Data: Data{Cards: cards}}, nil
}

// FetchSearchPage serves the same feed wrapped in search group cards.
func (m *MockClient) FetchSearchPage(ctx context.Context, keyword string, page int) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailPages[page] {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "injected failure for page %d", page)
	}

	records := m.pageRecords(page)
	if len(records) == 0 {
		return &Envelope{Ok: 1, Data: Data{Cards: []Card{}}}, nil
	}

	group := Card{CardType: CardTypeGroup}
	for _, record := range records {
		group.CardGroup = append(group.CardGroup, Card{CardType: CardTypePost, MBlog: record})
	}
	return &Envelope{Ok: 1, Data: Data{Cards: []Card{group}}}, nil
}

// FetchLongText serves the configured full text for a post.
func (m *MockClient) FetchLongText(ctx context.Context, postID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if text, ok := m.LongTexts[postID]; ok {
		return text, nil
	}
	return "", errors.Newf(errors.ErrorTypeNotFound, "no long text for post %s", postID)
}

// pageRecords slices the feed for a 1-based page index.
func (m *MockClient) pageRecords(page int) []*MBlog {
	size := m.pageSize()
	start := (page - 1) * size
	if start < 0 || start >= len(m.Records) {
		return nil
	}
	end := start + size
	if end > len(m.Records) {
		end = len(m.Records)
	}
	return m.Records[start:end]
}
