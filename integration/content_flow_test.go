package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentVisibilityFlow(t *testing.T) {
	ts := NewTestServer(t)

	aliceTok, aliceUID := ts.Login(t, UniqueID("alice"), "pass1234")
	bobTok, bobUID := ts.Login(t, UniqueID("bob"), "pass1234")
	ts.SetPrivate(t, bobUID, true)

	// Bob writes a post on his private profile.
	resp := ts.PostJSON(t, "/api/posts", map[string]string{
		"title":   "Quiet Thoughts",
		"content": "only for followers",
	}, bobTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	ReadJSON(t, resp, &created)
	post := created["post"].(map[string]interface{})
	postID := int64(post["id"].(float64))
	assert.Equal(t, "quiet-thoughts", post["slug"])

	// Alice cannot see it yet.
	resp = ts.Get(t, fmt.Sprintf("/api/posts/%d", postID), aliceTok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Follow request + accept opens the gate.
	resp = ts.PostJSON(t, "/api/social/follow/"+bobUID, nil, aliceTok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = ts.PostJSON(t, "/api/social/accept/"+aliceUID, nil, bobTok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Get(t, fmt.Sprintf("/api/posts/%d", postID), aliceTok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Now she can comment and vote.
	resp = ts.PostJSON(t, fmt.Sprintf("/api/posts/%d/comments", postID),
		map[string]string{"content": "glad to be here"}, aliceTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, fmt.Sprintf("/api/posts/%d/vote", postID),
		map[string]int{"stars": 5}, aliceTok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var voted map[string]interface{}
	ReadJSON(t, resp, &voted)
	assert.Equal(t, float64(5), voted["score"])
}

func TestPostDeletionTakesCommentsAndVotes(t *testing.T) {
	ts := NewTestServer(t)

	aliceTok, _ := ts.Login(t, UniqueID("alice"), "pass1234")
	bobTok, _ := ts.Login(t, UniqueID("bob"), "pass1234")

	resp := ts.PostJSON(t, "/api/posts", map[string]string{
		"title":   "Ephemeral",
		"content": "soon gone",
	}, aliceTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	ReadJSON(t, resp, &created)
	postID := int64(created["post"].(map[string]interface{})["id"].(float64))

	resp = ts.PostJSON(t, fmt.Sprintf("/api/posts/%d/comments", postID),
		map[string]string{"content": "nice"}, bobTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Delete(t, fmt.Sprintf("/api/posts/%d", postID), aliceTok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var n int64
	ts.DB.Table("comments").Where("post_id = ?", postID).Count(&n)
	assert.Zero(t, n)
}

func TestAdminRemovesSpamProfile(t *testing.T) {
	ts := NewTestServer(t)

	spamTok, spamUID := ts.Login(t, UniqueID("spammer"), "pass1234")

	resp := ts.PostJSON(t, "/api/posts", map[string]string{
		"title":   "Buy now",
		"content": "spam spam spam",
	}, spamTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Delete(t, "/api/admin/profiles/"+spamUID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var n int64
	ts.DB.Table("posts").Count(&n)
	assert.Zero(t, n)
}
