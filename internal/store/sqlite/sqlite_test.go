package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Items []string `json:"items"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_UnknownCollectionIsZeroValue(t *testing.T) {
	s := newTestStore(t)

	var doc testDoc
	err := s.Load(context.Background(), "nothing", &doc)

	require.NoError(t, err, "a collection that was never saved is not an error")
	assert.Nil(t, doc.Items)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "things", testDoc{Items: []string{"a", "b"}}))

	var doc testDoc
	require.NoError(t, s.Load(ctx, "things", &doc))
	assert.Equal(t, []string{"a", "b"}, doc.Items)
}

func TestSave_UpsertReplacesDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "things", testDoc{Items: []string{"old"}}))
	require.NoError(t, s.Save(ctx, "things", testDoc{Items: []string{"new"}}))

	var doc testDoc
	require.NoError(t, s.Load(ctx, "things", &doc))
	assert.Equal(t, []string{"new"}, doc.Items, "the second save replaces the row, not appends")
}

func TestCollections_AreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "first", testDoc{Items: []string{"a"}}))
	require.NoError(t, s.Save(ctx, "second", testDoc{Items: []string{"b"}}))

	var first, second testDoc
	require.NoError(t, s.Load(ctx, "first", &first))
	require.NoError(t, s.Load(ctx, "second", &second))

	assert.Equal(t, []string{"a"}, first.Items)
	assert.Equal(t, []string{"b"}, second.Items)
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "things", testDoc{Items: []string{"durable"}}))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	var doc testDoc
	require.NoError(t, reopened.Load(ctx, "things", &doc))
	assert.Equal(t, []string{"durable"}, doc.Items)
}
