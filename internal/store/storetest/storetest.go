// Package storetest is the behavioral contract every store backend must satisfy.
//
// Backend packages call Run from their own tests:
//
//	func TestContract(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
//	}
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// Factory returns an empty store for a single test.
// The factory owns cleanup (t.Cleanup).
type Factory func(t *testing.T) store.Store

// concurrency is the number of goroutines used by the race tests.
const concurrency = 24

// Run executes the full contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Ping", testPing},
		{"KeywordUpsertIsIdempotent", testKeywordUpsertIsIdempotent},
		{"KeywordConcurrentUpsertConverges", testKeywordConcurrentUpsertConverges},
		{"ClearKeywords", testClearKeywords},
		{"ResourceCreateThenIncrement", testResourceCreateThenIncrement},
		{"ResourceInitialCountZero", testResourceInitialCountZero},
		{"ResourceGetNotFound", testResourceGetNotFound},
		{"DecrementDeletesAtZero", testDecrementDeletesAtZero},
		{"DecrementAfterResetDeletes", testDecrementAfterResetDeletes},
		{"LikesFloorAtZero", testLikesFloorAtZero},
		{"LikesOnMissingResource", testLikesOnMissingResource},
		{"ResetVersusDecrement", testResetVersusDecrement},
		{"ConcurrentUpsertLosesNoIncrement", testConcurrentUpsertLosesNoIncrement},
		{"ConcurrentDecrementRemovesOnce", testConcurrentDecrementRemovesOnce},
		{"ConcurrentLikes", testConcurrentLikes},
		{"TopResourcesRanking", testTopResourcesRanking},
		{"DeleteAllResources", testDeleteAllResources},
		{"Documents", testDocuments},
		{"DocumentKindsAreIsolated", testDocumentKindsAreIsolated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func testPing(t *testing.T, s store.Store) {
	require.NoError(t, s.Ping(context.Background()))
}

func testKeywordUpsertIsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	kw, created, err := s.UpsertKeyword(ctx, "foo")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "foo", kw.Value)
	first := kw.CreatedAt

	for range 3 {
		time.Sleep(5 * time.Millisecond)
		kw, created, err = s.UpsertKeyword(ctx, "foo")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "foo", kw.Value)
		assert.WithinDuration(t, first, kw.CreatedAt, time.Millisecond, "repeat save reports the stored creation time")
	}

	values, err := s.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, values)
}

func testKeywordConcurrentUpsertConverges(t *testing.T, s store.Store) {
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := s.UpsertKeyword(ctx, "physics")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if c {
				created++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs, "concurrent upserts must not surface uniqueness conflicts")
	assert.Equal(t, 1, created, "exactly one caller creates the keyword")

	values, err := s.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"physics"}, values)
}

func testClearKeywords(t *testing.T, s store.Store) {
	ctx := context.Background()

	removed, err := s.ClearKeywords(ctx)
	require.NoError(t, err, "clearing an empty collection succeeds")
	assert.Equal(t, int64(0), removed)

	for _, v := range []string{"algebra", "biology", "chemistry"} {
		_, _, err := s.UpsertKeyword(ctx, v)
		require.NoError(t, err)
	}

	removed, err = s.ClearKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	values, err := s.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func testResourceCreateThenIncrement(t *testing.T, s store.Store) {
	ctx := context.Background()

	r, created, err := s.UpsertResource(ctx, domain.ResourceInput{
		ID: "oer-1", Title: "Algebra", Description: "Linear equations",
	}, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "oer-1", r.ID)
	assert.Equal(t, int64(1), r.Count)
	assert.Equal(t, int64(0), r.Likes)

	r, created, err = s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Algebra I"}, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(2), r.Count)
	assert.Equal(t, "Algebra I", r.Title)
	assert.Equal(t, "Linear equations", r.Description, "empty description keeps stored value")

	r, _, err = s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Algebra I", Description: "Updated"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.Count)
	assert.Equal(t, "Updated", r.Description)

	got, err := s.GetResource(ctx, "oer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, "Algebra I", got.Title)
	assert.Equal(t, "Updated", got.Description)
}

func testResourceInitialCountZero(t *testing.T, s store.Store) {
	ctx := context.Background()

	r, created, err := s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-0", Title: "Geometry"}, 0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(0), r.Count)

	r, _, err = s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-0", Title: "Geometry"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Count)
}

func testResourceGetNotFound(t *testing.T, s store.Store) {
	_, err := s.GetResource(context.Background(), "missing")
	assertNotFound(t, err)
}

func testDecrementDeletesAtZero(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, _, err := s.DecrementResourceCount(ctx, "missing")
	assertNotFound(t, err)

	saveN(t, s, "oer-1", 3)

	r, removed, err := s.DecrementResourceCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.False(t, removed)
	require.NotNil(t, r)
	assert.Equal(t, int64(2), r.Count)

	_, removed, err = s.DecrementResourceCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, removed, err = s.DecrementResourceCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.True(t, removed, "reaching zero removes the record")

	_, err = s.GetResource(ctx, "oer-1")
	assertNotFound(t, err)

	_, _, err = s.DecrementResourceCount(ctx, "oer-1")
	assertNotFound(t, err)
}

func testDecrementAfterResetDeletes(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveN(t, s, "oer-1", 2)

	_, err := s.ResetAllCounts(ctx)
	require.NoError(t, err)

	_, removed, err := s.DecrementResourceCount(ctx, "oer-1")
	require.NoError(t, err)
	assert.True(t, removed, "a zeroed record cannot go negative, it is removed")

	_, err = s.GetResource(ctx, "oer-1")
	assertNotFound(t, err)
}

func testLikesFloorAtZero(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveN(t, s, "oer-1", 1)

	r, err := s.AdjustLikes(ctx, "oer-1", -1)
	require.NoError(t, err, "unliking at zero is a no-op, not an error")
	assert.Equal(t, int64(0), r.Likes)

	_, err = s.AdjustLikes(ctx, "oer-1", 1)
	require.NoError(t, err)
	r, err = s.AdjustLikes(ctx, "oer-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Likes)

	r, err = s.AdjustLikes(ctx, "oer-1", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Likes)

	got, err := s.GetResource(ctx, "oer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)
	assert.Equal(t, int64(1), got.Count, "likes never touch the usage count")
}

func testLikesOnMissingResource(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AdjustLikes(ctx, "missing", 1)
	assertNotFound(t, err)

	_, err = s.AdjustLikes(ctx, "missing", -1)
	assertNotFound(t, err)

	_, err = s.GetResource(ctx, "missing")
	assertNotFound(t, err, "likes never create a record")
}

func testResetVersusDecrement(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("reset keeps records", func(t *testing.T) {
		saveN(t, s, "reset-a", 1)
		saveN(t, s, "reset-b", 3)

		_, err := s.ResetAllCounts(ctx)
		require.NoError(t, err)

		a, err := s.GetResource(ctx, "reset-a")
		require.NoError(t, err)
		assert.Equal(t, int64(0), a.Count)

		b, err := s.GetResource(ctx, "reset-b")
		require.NoError(t, err)
		assert.Equal(t, int64(0), b.Count)
	})

	t.Run("decrement removes only its target", func(t *testing.T) {
		saveN(t, s, "dec-a", 1)
		saveN(t, s, "dec-b", 3)

		_, removed, err := s.DecrementResourceCount(ctx, "dec-a")
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = s.GetResource(ctx, "dec-a")
		assertNotFound(t, err)

		b, err := s.GetResource(ctx, "dec-b")
		require.NoError(t, err)
		assert.Equal(t, int64(3), b.Count)
	})
}

func testConcurrentUpsertLosesNoIncrement(t *testing.T, s store.Store) {
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, concurrency)
	created := make(chan bool, concurrency)

	for i := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := s.UpsertResource(ctx, domain.ResourceInput{
				ID:    "oer-x",
				Title: fmt.Sprintf("Title %d", i),
			}, 1)
			errs <- err
			created <- c
		}()
	}
	wg.Wait()
	close(errs)
	close(created)

	for err := range errs {
		require.NoError(t, err)
	}
	creators := 0
	for c := range created {
		if c {
			creators++
		}
	}
	assert.Equal(t, 1, creators)

	r, err := s.GetResource(ctx, "oer-x")
	require.NoError(t, err)
	assert.Equal(t, int64(concurrency), r.Count, "every save is counted exactly once")

	all, err := s.ListResources(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testConcurrentDecrementRemovesOnce(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveN(t, s, "oer-d", concurrency)

	var wg sync.WaitGroup
	removedCh := make(chan bool, concurrency)
	errs := make(chan error, concurrency)

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, removed, err := s.DecrementResourceCount(ctx, "oer-d")
			errs <- err
			removedCh <- removed
		}()
	}
	wg.Wait()
	close(errs)
	close(removedCh)

	for err := range errs {
		require.NoError(t, err)
	}
	removals := 0
	for r := range removedCh {
		if r {
			removals++
		}
	}
	assert.Equal(t, 1, removals, "only the decrement reaching zero removes the record")

	_, err := s.GetResource(ctx, "oer-d")
	assertNotFound(t, err)
}

func testConcurrentLikes(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveN(t, s, "oer-l", 1)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AdjustLikes(ctx, "oer-l", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	r, err := s.GetResource(ctx, "oer-l")
	require.NoError(t, err)
	assert.Equal(t, int64(concurrency), r.Likes)
}

func testTopResourcesRanking(t *testing.T, s store.Store) {
	ctx := context.Background()

	saveN(t, s, "five-a", 5)
	saveN(t, s, "five-b", 5)
	saveN(t, s, "three", 3)
	saveN(t, s, "one", 1)

	top, err := s.TopResources(ctx, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"five-a", "five-b"}, resourceIDs(top))

	all, err := s.TopResources(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	}), "results are ordered by count descending")
	assert.Equal(t, "three", all[2].ID)
	assert.Equal(t, "one", all[3].ID)

	none, err := s.TopResources(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDeleteAllResources(t *testing.T, s store.Store) {
	ctx := context.Background()

	removed, err := s.DeleteAllResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	saveN(t, s, "oer-1", 2)
	saveN(t, s, "oer-2", 1)

	removed, err = s.DeleteAllResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	all, err := s.ListResources(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testDocuments(t *testing.T, s store.Store) {
	ctx := context.Background()

	body := map[string]any{
		"title": "Photosynthesis",
		"nodes": []any{
			map[string]any{"id": "n1", "label": "Light"},
			map[string]any{"id": "n2", "label": "Sugar"},
		},
		"edges": []any{map[string]any{"from": "n1", "to": "n2"}},
	}

	saved, err := s.SaveDocument(ctx, &domain.Document{ID: "scn-1", Kind: domain.KindLearningScenario, Body: body})
	require.NoError(t, err)
	assert.Equal(t, "scn-1", saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.GetDocument(ctx, domain.KindLearningScenario, "scn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindLearningScenario, got.Kind)
	assertSameJSON(t, body, got.Body)

	updated := map[string]any{"title": "Photosynthesis II"}
	_, err = s.SaveDocument(ctx, &domain.Document{ID: "scn-1", Kind: domain.KindLearningScenario, Body: updated})
	require.NoError(t, err)

	got, err = s.GetDocument(ctx, domain.KindLearningScenario, "scn-1")
	require.NoError(t, err)
	assertSameJSON(t, updated, got.Body)

	list, err := s.ListDocuments(ctx, domain.KindLearningScenario)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteDocument(ctx, domain.KindLearningScenario, "scn-1"))

	_, err = s.GetDocument(ctx, domain.KindLearningScenario, "scn-1")
	assertNotFound(t, err)

	err = s.DeleteDocument(ctx, domain.KindLearningScenario, "scn-1")
	assertNotFound(t, err)
}

func testDocumentKindsAreIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.SaveDocument(ctx, &domain.Document{
		ID: "shared-id", Kind: domain.KindLearningPath, Body: map[string]any{"lessons": []any{"intro"}},
	})
	require.NoError(t, err)

	_, err = s.GetDocument(ctx, domain.KindLearningScenario, "shared-id")
	assertNotFound(t, err)

	scenarios, err := s.ListDocuments(ctx, domain.KindLearningScenario)
	require.NoError(t, err)
	assert.Empty(t, scenarios)

	paths, err := s.ListDocuments(ctx, domain.KindLearningPath)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

// saveN saves id n times with an initial count of 1, leaving count == n.
func saveN(t *testing.T, s store.Store, id string, n int) {
	t.Helper()
	for range n {
		_, _, err := s.UpsertResource(context.Background(), domain.ResourceInput{ID: id, Title: "Resource " + id}, 1)
		require.NoError(t, err)
	}
}

func resourceIDs(rs []*domain.Resource) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func assertNotFound(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	assert.True(t, errors.Is(err, store.ErrNotFound), "expected not found, got %v", err)
}

// assertSameJSON compares bodies through JSON so backend-specific number and
// array types do not matter.
func assertSameJSON(t *testing.T, want, got map[string]any) {
	t.Helper()
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}
