package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/domain"
	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/search"
	"github.com/oerhub/oerhub-server/internal/validation"
)

func saveOER(t *testing.T, svc *testServices, id, title string) *domain.Resource {
	t.Helper()
	r, _, err := svc.resources.SaveResource(context.Background(), SaveResourceRequest{ID: id, Title: title})
	require.NoError(t, err)
	return r
}

func TestSaveResource_CreateThenCount(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	r, created, err := svc.resources.SaveResource(ctx, SaveResourceRequest{
		ID:          "oer-1",
		Title:       "  Linear Algebra ",
		Description: "Vectors",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Linear Algebra", r.Title)
	assert.Equal(t, int64(1), r.Count)
	assert.Zero(t, r.Likes)

	r, created, err = svc.resources.SaveResource(ctx, SaveResourceRequest{ID: "oer-1", Title: "Linear Algebra II"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(2), r.Count)
	assert.Equal(t, "Linear Algebra II", r.Title)
	assert.Equal(t, "Vectors", r.Description)
}

func TestSaveResource_InitialCountZero(t *testing.T) {
	policy := defaultPolicy()
	policy.InitialCount = 0
	svc := newTestServices(t, policy)

	r := saveOER(t, svc, "oer-1", "Algebra")
	assert.Zero(t, r.Count)
}

func TestSaveResource_Validation(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())

	tests := []struct {
		name string
		req  SaveResourceRequest
	}{
		{name: "missing id", req: SaveResourceRequest{Title: "T"}},
		{name: "blank id", req: SaveResourceRequest{ID: "   ", Title: "T"}},
		{name: "id with slash", req: SaveResourceRequest{ID: "a/b", Title: "T"}},
		{name: "missing title", req: SaveResourceRequest{ID: "oer-1"}},
		{name: "blank title", req: SaveResourceRequest{ID: "oer-1", Title: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.resources.SaveResource(context.Background(), tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	_, err := svc.store.GetResource(context.Background(), "oer-1")
	assert.Error(t, err, "nothing may be stored on a rejected save")
}

func TestSaveResource_ConcurrentSavesCountEveryOne(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Go(func() {
			_, _, err := svc.resources.SaveResource(context.Background(), SaveResourceRequest{ID: "hot", Title: "Hot"})
			errs <- err
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := svc.resources.GetCount(context.Background(), "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestDecrementCount(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	saveOER(t, svc, "oer-1", "Algebra")
	saveOER(t, svc, "oer-1", "Algebra")

	r, removed, err := svc.resources.DecrementCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int64(1), r.Count)

	_, removed, err = svc.resources.DecrementCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, _, err = svc.resources.DecrementCount(ctx, "oer-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetCount_MissingPolicies(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	_, err := svc.resources.GetCount(context.Background(), "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	policy := defaultPolicy()
	policy.MissingCount = config.PolicyZero
	svc = newTestServices(t, policy)
	count, err := svc.resources.GetCount(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLikes(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()
	saveOER(t, svc, "oer-1", "Algebra")

	r, err := svc.resources.Like(ctx, "oer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Likes)

	_, err = svc.resources.Unlike(ctx, "oer-1")
	require.NoError(t, err)
	r, err = svc.resources.Unlike(ctx, "oer-1")
	require.NoError(t, err, "unlike at zero succeeds")
	assert.Zero(t, r.Likes)

	likes, err := svc.resources.GetLikes(ctx, "oer-1")
	require.NoError(t, err)
	assert.Zero(t, likes)
}

func TestLikes_MissingPolicies(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	_, err := svc.resources.Like(context.Background(), "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	policy := defaultPolicy()
	policy.MissingLike = config.PolicyNoop
	svc = newTestServices(t, policy)

	r, err := svc.resources.Like(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, r)
	r, err = svc.resources.Unlike(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, r)

	// Likes never create a record, and getLikes still reports the miss.
	_, err = svc.resources.GetLikes(context.Background(), "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestResetAllCounts_KeepsRecords(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	saveOER(t, svc, "a", "A")
	for range 3 {
		saveOER(t, svc, "b", "B")
	}

	n, err := svc.resources.ResetAllCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{"a", "b"} {
		count, err := svc.resources.GetCount(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, count)
	}

	res, err := svc.search.Search(ctx, SearchRequest{SortBy: search.SortCount})
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	for _, h := range res.Hits {
		assert.Zero(t, h.Count, "index refreshed after reset")
	}
}

func TestDeleteAllResources(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	saveOER(t, svc, "a", "Algebra")
	saveOER(t, svc, "b", "Biology")

	n, err := svc.resources.DeleteAllResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.resources.GetLikes(ctx, "a")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	res, err := svc.search.Search(ctx, SearchRequest{Query: "algebra"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestTopResources(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	for id, saves := range map[string]int{"five-a": 5, "five-b": 5, "three": 3, "one": 1} {
		for range saves {
			saveOER(t, svc, id, id)
		}
	}

	top, err := svc.resources.TopResources(ctx, 2)
	require.NoError(t, err)
	ids := []string{top[0].ID, top[1].ID}
	assert.ElementsMatch(t, []string{"five-a", "five-b"}, ids)

	top, err = svc.resources.TopResources(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, 4, "default limit of 5 returns everything")

	_, err = svc.resources.TopResources(ctx, 101)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = svc.resources.TopResources(ctx, -1)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSaveResource_IndexedForSearch(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	saveOER(t, svc, "oer-1", "Organic Chemistry")

	res, err := svc.search.Search(ctx, SearchRequest{Query: "chemistry"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "oer-1", res.Hits[0].ID)

	_, _, err = svc.resources.DecrementCount(ctx, "oer-1")
	require.NoError(t, err)

	res, err = svc.search.Search(ctx, SearchRequest{Query: "chemistry"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits, "removed oer leaves the index")
}

func TestResourceService_WithoutSearch(t *testing.T) {
	st := newTestStore(t)
	svc := NewResourceService(st, nil, defaultPolicy(), validation.New(), testLogger())

	r, created, err := svc.SaveResource(context.Background(), SaveResourceRequest{ID: "x", Title: "X"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), r.Count)

	_, removed, err := svc.DecrementCount(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestSearchIndex_ConcurrentUpdatesIndexLatestState(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			_, _, err := svc.resources.SaveResource(ctx, SaveResourceRequest{ID: "hot", Title: "Thermodynamics"})
			assert.NoError(t, err)
			_, err = svc.resources.Like(ctx, "hot")
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	res, err := svc.search.Search(ctx, SearchRequest{
		Query:  "thermodynamics",
		Types:  []search.DocType{search.DocTypeOER},
		SortBy: "count",
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, int64(n), res.Hits[0].Count)
	assert.Equal(t, int64(n), res.Hits[0].Likes)
}
