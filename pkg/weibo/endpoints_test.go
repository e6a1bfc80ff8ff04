package weibo

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryOf(t *testing.T, rawURL string) url.Values {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	return parsed.Query()
}

func TestProfileURL(t *testing.T) {
	u := ProfileURL(DefaultBaseURL, "1669879400")
	assert.Contains(t, u, DefaultBaseURL+IndexEndpoint)
	assert.Equal(t, "1005051669879400", queryOf(t, u).Get("containerid"))
}

func TestTimelineURL(t *testing.T) {
	u := TimelineURL(DefaultBaseURL, "1669879400", 3)
	query := queryOf(t, u)
	assert.Equal(t, "2304131669879400", query.Get("containerid"))
	assert.Equal(t, "3", query.Get("page"))
}

func TestSearchURL(t *testing.T) {
	u := SearchURL(DefaultBaseURL, "春节", 2)
	query := queryOf(t, u)
	assert.Equal(t, "100103type=1&q=春节", query.Get("containerid"))
	assert.Equal(t, "searchall", query.Get("page_type"))
	assert.Equal(t, "2", query.Get("page"))
}

func TestDetailURL(t *testing.T) {
	assert.Equal(t, "https://m.weibo.cn/detail/4567890", DetailURL(DefaultBaseURL, "4567890"))
}

func TestPageBound(t *testing.T) {
	tests := []struct {
		name      string
		postTotal int
		maxCount  int
		want      int
	}{
		{"bounded by total", 25, 100, 3},
		{"bounded by max", 1000, 35, 4},
		{"exact pages", 30, 30, 3},
		{"single post", 1, 50, 1},
		{"zero posts", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageBound(tt.postTotal, tt.maxCount))
		})
	}
}
