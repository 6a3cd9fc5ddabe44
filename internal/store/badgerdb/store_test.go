package badgerdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/storetest"
)

// newTestStore opens a store in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestContract_InMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open("", nil, Options{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil, Options{})
	require.NoError(t, err)

	_, _, err = s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Algebra"}, 1)
	require.NoError(t, err)
	_, _, err = s.UpsertKeyword(ctx, "algebra")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil, Options{})
	require.NoError(t, err)
	defer s.Close()

	r, err := s.GetResource(ctx, "oer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Count)

	values, err := s.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"algebra"}, values)
}

func TestPingAfterClose(t *testing.T) {
	s, err := Open(t.TempDir(), nil, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Ping(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestBatchWriter_FlushesAtMaxSize(t *testing.T) {
	s := newTestStore(t)

	s.mu.Lock()
	bw := s.newBatchWriter(2)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, bw.set(writeKey(keywordPrefix, id), []byte(`{"value":"`+id+`"}`)))
	}
	assert.Equal(t, 1, bw.count, "two writes were flushed automatically")
	require.NoError(t, bw.finish())
	s.mu.Unlock()

	values, err := s.ListKeywords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, values)
}
