package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibolens/pkg/logger"
	"weibolens/pkg/ratelimit"
	"weibolens/pkg/weibo"
)

type capturingWriter struct {
	path  string
	posts []weibo.Post
	err   error
	calls int
}

func (w *capturingWriter) WritePosts(path string, posts []weibo.Post) error {
	w.calls++
	w.path = path
	w.posts = posts
	return w.err
}

type countingDelayer struct {
	before int
	after  int
}

func (d *countingDelayer) BeforeRequest(ctx context.Context) error {
	d.before++
	return ctx.Err()
}

func (d *countingDelayer) AfterPage(ctx context.Context) error {
	d.after++
	return ctx.Err()
}

func fixedParser() *weibo.Parser {
	now := func() time.Time { return time.Date(2025, 7, 28, 12, 0, 0, 0, time.UTC) }
	log := logger.NewNop()
	return weibo.NewParser(weibo.NewDateNormalizerAt(now, log), nil, log)
}

func newTestController(client weibo.Client, writer PostWriter) *Controller {
	return New(client, fixedParser(), ratelimit.NopDelayer{}, writer, logger.NewNop())
}

func sinceDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		userID  string
		max     int
		wantErr bool
	}{
		{"keyword only", "春节", "", 10, false},
		{"user only", "", "1669879400", 10, false},
		{"no target", "", "", 10, true},
		{"zero max count", "春节", "", 0, true},
		{"negative max count", "春节", "", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.keyword, tt.userID, tt.max, time.Time{}, "")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionCutoffUsesCalendarDay(t *testing.T) {
	zone := time.FixedZone("UTC-7", -7*3600)
	since := time.Date(2026, 8, 27, 18, 0, 0, 0, zone)

	session, err := NewSession("话题", "", 10, since, "")
	require.NoError(t, err)

	// A post dated the cutoff day itself is admissible; only strictly older
	// days trip the stopping rule.
	assert.False(t, session.BeforeCutoff("2026-08-27"))
	assert.True(t, session.BeforeCutoff("2026-08-26"))
	assert.False(t, session.BeforeCutoff("2026-08-28"))
}

func TestSessionDefaultsSinceDateToOneYearAgo(t *testing.T) {
	session, err := NewSession("春节", "", 10, time.Time{}, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(-1, 0, 0), session.SinceDate, 48*time.Hour)
}

func TestParseSinceDate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got, err := ParseSinceDate("")
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("absolute date", func(t *testing.T) {
		got, err := ParseSinceDate("2025-01-15")
		require.NoError(t, err)
		assert.Equal(t, "2025-01-15", got.Format("2006-01-02"))
	})

	t.Run("days back", func(t *testing.T) {
		got, err := ParseSinceDate("30")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), got, time.Minute)
	})

	t.Run("negative days", func(t *testing.T) {
		_, err := ParseSinceDate("-5")
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseSinceDate("soon")
		assert.Error(t, err)
	})
}

func TestCrawlByKeywordStopsAtMaxCount(t *testing.T) {
	writer := &capturingWriter{}
	ctrl := newTestController(weibo.NewMockClient(), writer)

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   3,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, count)
	assert.Equal(t, 1, writer.calls)
	assert.Len(t, writer.posts, 3)
}

func TestCrawlByKeywordExhaustsResults(t *testing.T) {
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	ctrl := newTestController(mock, writer)

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, len(mock.Records), count)
}

func TestCrawlStopsAtSinceDate(t *testing.T) {
	writer := &capturingWriter{}
	ctrl := newTestController(weibo.NewMockClient(), writer)

	// The mock feed runs backward one day per record from 2025-07-28.
	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2025-07-24"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, count)
	for _, post := range writer.posts {
		assert.GreaterOrEqual(t, post.CreatedAt, "2025-07-24")
	}
}

func TestCrawlSkipsFailedPageAndAdvances(t *testing.T) {
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	mock.FailPages = map[int]bool{2: true}
	ctrl := newTestController(mock, writer)

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	// Pages 1 and 3 still arrive; the ten posts of page 2 are lost.
	assert.Equal(t, len(mock.Records)-10, count)
}

func TestCrawlDelaysSurroundEveryPageIncludingFailures(t *testing.T) {
	delayer := &countingDelayer{}
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	mock.FailPages = map[int]bool{1: true, 2: true}
	ctrl := New(mock, fixedParser(), delayer, writer, logger.NewNop())

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	// Pages 1 and 2 fail, page 3 carries the last five posts, page 4 is
	// empty and ends the walk. Failed pages still get both waits.
	assert.Equal(t, 5, count)
	assert.Equal(t, 4, delayer.before)
	assert.Equal(t, delayer.before, delayer.after)
}

func TestCrawlByUserIDUsesProfilePageBound(t *testing.T) {
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	ctrl := newTestController(mock, writer)

	count, err := ctrl.CrawlByUserID(context.Background(), "1669879400", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, len(mock.Records), count)
}

func TestCrawlByUserIDDegradesWhenLookupFails(t *testing.T) {
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	mock.User = nil
	ctrl := newTestController(mock, writer)

	count, err := ctrl.CrawlByUserID(context.Background(), "999", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	// Without a profile the walk is limited to a single page.
	assert.Equal(t, weibo.PostsPerPage, count)
}

func TestCrawlRespectsPageCap(t *testing.T) {
	writer := &capturingWriter{}
	mock := weibo.NewMockClient()
	mock.PageSize = 5
	ctrl := newTestController(mock, writer)
	ctrl.SetPageCap(2)

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   100,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, count)
}

func TestCrawlReportsZeroOnPersistenceFailure(t *testing.T) {
	writer := &capturingWriter{err: assert.AnError}
	ctrl := newTestController(weibo.NewMockClient(), writer)

	count, err := ctrl.CrawlByKeyword(context.Background(), "示例", Options{
		MaxCount:   5,
		SinceDate:  sinceDate(t, "2024-01-01"),
		OutputPath: t.TempDir() + "/out.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCrawlValidationErrorIsFatal(t *testing.T) {
	ctrl := newTestController(weibo.NewMockClient(), &capturingWriter{})

	_, err := ctrl.CrawlByKeyword(context.Background(), "", Options{MaxCount: 5})
	assert.Error(t, err)
}

func TestCrawlStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := newTestController(weibo.NewMockClient(), &capturingWriter{})
	_, err := ctrl.CrawlByKeyword(ctx, "示例", Options{
		MaxCount:  5,
		SinceDate: sinceDate(t, "2024-01-01"),
	})
	assert.Error(t, err)
}

func TestCollectRecordsFlattensGroups(t *testing.T) {
	envelope := &weibo.Envelope{
		Ok: 1,
		Data: weibo.Data{
			Cards: []weibo.Card{
				{CardType: weibo.CardTypePost, MBlog: &weibo.MBlog{ID: "1"}},
				{CardType: weibo.CardTypeGroup, CardGroup: []weibo.Card{
					{CardType: weibo.CardTypePost, MBlog: &weibo.MBlog{ID: "2"}},
					{CardType: 4},
				}},
				{CardType: weibo.CardTypePost, MBlog: nil},
			},
		},
	}

	records := collectRecords(envelope)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "2", records[1].ID)
}
