package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/store/jsonfile"
)

func newTestStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	s, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestUsers_RoundTrip(t *testing.T) {
	repo := NewUsers(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, []model.User{
		{ID: 1, Username: "alice", Email: "alice@example.com"},
	}))

	users, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestPosts_NestedRepliesSurviveRoundTrip(t *testing.T) {
	repo := NewPosts(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, []model.Post{
		{
			ID:      10,
			Title:   "t",
			Author:  "alice",
			Likes:   1,
			LikedBy: []string{"bob"},
			Replies: []model.Reply{{ID: 11, Author: "bob", Text: "hi", Timestamp: 11}},
		},
	}))

	posts, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"bob"}, posts[0].LikedBy)
	require.Len(t, posts[0].Replies, 1)
	assert.Equal(t, "bob", posts[0].Replies[0].Author)
}

func TestReplace_NilBecomesEmptyArray(t *testing.T) {
	store := newTestStore(t)
	repo := NewMessages(store)
	ctx := context.Background()

	// A nil slice would serialize as `"messages": null` — the repos
	// normalise so the stored document always carries an array.
	require.NoError(t, repo.Replace(ctx, nil))

	var doc struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, store.Load(ctx, MessagesCollection, &doc))
	assert.NotNil(t, doc.Messages)
	assert.Empty(t, doc.Messages)
}

func TestSeedAll_CreatesEveryCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, SeedAll(ctx, store))

	users, err := NewUsers(store).Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)

	posts, err := NewPosts(store).Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)

	messages, err := NewMessages(store).Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, messages)

	subscribers, err := NewSubscribers(store).Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, subscribers)
}

// TestConcurrentCycles_LoseUpdates pins down the concurrency model rather
// than guarding against a regression: two interleaved load→append→replace
// cycles keep only the second writer's row. There is deliberately no
// locking anywhere in the stack.
func TestConcurrentCycles_LoseUpdates(t *testing.T) {
	repo := NewSubscribers(newTestStore(t))
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	second, err := repo.Load(ctx)
	require.NoError(t, err)

	first = append(first, model.Subscriber{ID: 1, Username: "alice", Phone: "+48111"})
	second = append(second, model.Subscriber{ID: 2, Username: "bob", Phone: "+48222"})

	require.NoError(t, repo.Replace(ctx, first))
	require.NoError(t, repo.Replace(ctx, second))

	final, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "bob", final[0].Username, "last writer wins; alice's insert is gone")
}
