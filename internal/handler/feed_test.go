package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createPost publishes one post as username and returns its id.
func createPost(t *testing.T, env *testEnv, username, title string) int64 {
	t.Helper()

	rr := env.do(t, http.MethodPost, "/api/informations",
		fmt.Sprintf(`{"title":%q,"content":"body"}`, title), username)
	require.Equal(t, http.StatusOK, rr.Code)

	var post struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&post))
	require.NotZero(t, post.ID)
	return post.ID
}

func TestFeedCreate_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/informations",
		`{"title":"t","content":"c"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestFeedCreate_ReturnsThePost(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/informations",
		`{"title":"fresh","content":"body"}`, "alice")
	require.Equal(t, http.StatusOK, rr.Code)

	// The created post comes back directly, not wrapped in an envelope.
	var post struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&post))
	assert.NotZero(t, post.ID)
	assert.Equal(t, "fresh", post.Title)
	assert.Equal(t, "alice", post.Author)
}

func TestFeedByAuthor_CarriesProfileAndPosts(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	createPost(t, env, "alice", "hers")

	rr := env.do(t, http.MethodGet, "/api/author/alice", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Profile struct {
			Username    string `json:"username"`
			DisplayName string `json:"displayName"`
		} `json:"profile"`
		Informations []struct {
			Title string `json:"title"`
		} `json:"informations"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "alice", res.Profile.Username)
	assert.Equal(t, "alice", res.Profile.DisplayName, "no display name set, falls back to username")
	require.Len(t, res.Informations, 1)
	assert.Equal(t, "hers", res.Informations[0].Title)
}

func TestFeedByAuthor_UnknownAuthorGetsStubProfile(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/author/ghost", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Profile struct {
			Username    string `json:"username"`
			DisplayName string `json:"displayName"`
		} `json:"profile"`
		Informations []struct{} `json:"informations"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "ghost", res.Profile.Username)
	assert.Equal(t, "ghost", res.Profile.DisplayName)
	assert.Empty(t, res.Informations)
}

func TestFeedList_AnonymousCanRead(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, "alice", "public post")

	rr := env.do(t, http.MethodGet, "/api/informations", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var posts []struct {
		Title      string `json:"title"`
		Author     string `json:"author"`
		AuthorLink string `json:"authorLink"`
		Liked      bool   `json:"liked"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "public post", posts[0].Title)
	assert.Equal(t, "/profile/alice", posts[0].AuthorLink)
	assert.False(t, posts[0].Liked)
}

func TestFeedLike_ToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	id := createPost(t, env, "alice", "likeable")

	path := fmt.Sprintf("/api/informations/%d/like", id)

	rr := env.do(t, http.MethodPost, path, "", "bob")
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		OK    bool `json:"ok"`
		Likes int  `json:"likes"`
		Liked bool `json:"liked"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Likes)
	assert.True(t, res.Liked)

	// Second toggle withdraws the like.
	rr = env.do(t, http.MethodPost, path, "", "bob")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, 0, res.Likes)
	assert.False(t, res.Liked)
}

func TestFeedUpdate_NonAuthorForbidden(t *testing.T) {
	env := newTestEnv(t)
	id := createPost(t, env, "alice", "hers")

	rr := env.do(t, http.MethodPut, fmt.Sprintf("/api/informations/%d", id),
		`{"title":"hijacked"}`, "bob")

	require.Equal(t, http.StatusForbidden, rr.Code)

	var res struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "forbidden", res.Error)
}

func TestFeedDelete_UnknownIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodDelete, "/api/informations/999999", "", "alice")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFeedGet_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/informations/not-a-number", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMessages_SendAndConversations(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/messages/send",
		`{"to":"bob","text":"hello bob"}`, "alice")
	require.Equal(t, http.StatusOK, rr.Code)

	// Bob's conversation list shows one unread row from alice.
	rr = env.do(t, http.MethodGet, "/api/messages/conversations", "", "bob")
	require.Equal(t, http.StatusOK, rr.Code)

	var convs []struct {
		WithUser    string `json:"withUser"`
		LastMessage string `json:"lastMessage"`
		Unread      bool   `json:"unread"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "alice", convs[0].WithUser)
	assert.Equal(t, "hello bob", convs[0].LastMessage)
	assert.True(t, convs[0].Unread)
}
