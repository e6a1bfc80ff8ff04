package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibolens/pkg/weibo"
)

func samplePosts() []weibo.Post {
	return []weibo.Post{
		{
			ID:             "4567890",
			UserID:         "1669879400",
			ScreenName:     "测试用户",
			Text:           "春节快乐, with a comma and \"quotes\"",
			Topics:         []string{"春节", "新年"},
			Mentions:       []string{"小明"},
			PicURLs:        []string{"http://img/a.jpg", "http://img/b.jpg"},
			VideoURL:       "http://v/720.mp4",
			CreatedAt:      "2025-07-28",
			Source:         "iPhone客户端",
			AttitudesCount: 12,
			CommentsCount:  3,
			RepostsCount:   1,
		},
		{
			ID:        "4567891",
			UserID:    "1669879400",
			Text:      "第二条",
			CreatedAt: "2025-07-27",
		},
	}
}

func TestWritePostsRoundTrip(t *testing.T) {
	manager, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	path := manager.PathFor("测试")
	require.NoError(t, manager.WritePosts(path, samplePosts()))

	loaded, err := ReadPosts(path)
	require.NoError(t, err)
	assert.Equal(t, samplePosts(), loaded)
}

func TestWritePostsStartsWithBOMAndHeader(t *testing.T) {
	manager, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	path := manager.PathFor("测试")
	require.NoError(t, manager.WritePosts(path, samplePosts()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Greater(t, len(raw), 3)
	assert.Equal(t, utf8BOM, raw[:3])

	firstLine := strings.SplitN(string(raw[3:]), "\n", 2)[0]
	assert.Equal(t, strings.Join(Header, ","), strings.TrimRight(firstLine, "\r"))
}

func TestWritePostsEmptySessionKeepsHeader(t *testing.T) {
	manager, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	path := manager.PathFor("empty")
	require.NoError(t, manager.WritePosts(path, nil))

	loaded, err := ReadPosts(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestReadPostsToleratesBadMetrics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.csv")
	content := strings.Join(Header, ",") + "\n" +
		"1,2,名字,文本,,,,,2025-01-01,,abc,,7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := ReadPosts(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assert.Equal(t, 0, loaded[0].AttitudesCount)
	assert.Equal(t, 0, loaded[0].CommentsCount)
	assert.Equal(t, 7, loaded[0].RepostsCount)
}

func TestReadCorpusMergesFiles(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, true)
	require.NoError(t, err)

	posts := samplePosts()
	require.NoError(t, manager.WritePosts(manager.PathFor("a"), posts[:1]))
	require.NoError(t, manager.WritePosts(manager.PathFor("b"), posts[1:]))

	merged, err := ReadCorpus(dir)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestPathForSanitizesTarget(t *testing.T) {
	manager, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	path := manager.PathFor(`a/b\c:d`)
	assert.NotContains(t, filepath.Base(path), "/")
	assert.Equal(t, ".csv", filepath.Ext(path))
}

func TestWritePostsLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, false)
	require.NoError(t, err)

	require.NoError(t, manager.WritePosts(manager.PathFor("x"), samplePosts()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(entry.Name()))
	}
}
