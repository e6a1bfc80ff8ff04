package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibolens/pkg/weibo"
)

func TestTopPosts(t *testing.T) {
	posts := []weibo.Post{
		{ID: "a", AttitudesCount: 10, CommentsCount: 1, RepostsCount: 5},
		{ID: "b", AttitudesCount: 5, CommentsCount: 9, RepostsCount: 5},
		{ID: "c", AttitudesCount: 20, CommentsCount: 2, RepostsCount: 0},
		{ID: "d", AttitudesCount: 1, CommentsCount: 7, RepostsCount: 8},
		{ID: "e", AttitudesCount: 20, CommentsCount: 3, RepostsCount: 2},
	}

	result := TopPosts(posts)

	require.Len(t, result.ByAttitudes, 3)
	// c and e tie at 20; stable sort keeps c first.
	assert.Equal(t, "c", result.ByAttitudes[0].ID)
	assert.Equal(t, "e", result.ByAttitudes[1].ID)
	assert.Equal(t, "a", result.ByAttitudes[2].ID)

	require.Len(t, result.ByComments, 3)
	assert.Equal(t, "b", result.ByComments[0].ID)
	assert.Equal(t, "d", result.ByComments[1].ID)
	assert.Equal(t, "e", result.ByComments[2].ID)

	require.Len(t, result.ByReposts, 3)
	assert.Equal(t, "d", result.ByReposts[0].ID)
	// a and b tie at 5; input order wins.
	assert.Equal(t, "a", result.ByReposts[1].ID)
	assert.Equal(t, "b", result.ByReposts[2].ID)
}

func TestTopPostsFewerThanThree(t *testing.T) {
	posts := []weibo.Post{
		{ID: "a", AttitudesCount: 1},
		{ID: "b", AttitudesCount: 2},
	}

	result := TopPosts(posts)
	assert.Len(t, result.ByAttitudes, 2)
	assert.Equal(t, "b", result.ByAttitudes[0].ID)
}

func TestTopPostsDoesNotMutateInput(t *testing.T) {
	posts := []weibo.Post{
		{ID: "a", AttitudesCount: 1},
		{ID: "b", AttitudesCount: 2},
	}

	TopPosts(posts)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
}

func TestTopPostsEmpty(t *testing.T) {
	result := TopPosts(nil)
	assert.Empty(t, result.ByAttitudes)
	assert.Empty(t, result.ByComments)
	assert.Empty(t, result.ByReposts)
}
