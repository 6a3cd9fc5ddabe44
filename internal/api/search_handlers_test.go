package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/search"
)

func TestSearchOERs(t *testing.T) {
	ts := setupTestServer(t)
	ts.saveOER(t, "oer-1", "Photosynthesis basics")
	ts.saveOER(t, "oer-2", "Linear algebra")
	ts.saveOER(t, "oer-3", "Plant cell structure")

	resp := ts.api.Get("/api/searchOERs?q=photosynthesis")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[search.SearchResult](t, resp)
	assert.Equal(t, "photosynthesis", result.Query)
	assert.Equal(t, uint64(1), result.Total)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "oer-1", result.Hits[0].ID)
	assert.Equal(t, search.DocTypeOER, result.Hits[0].Type)
}

func TestSearchOERs_SortByCount(t *testing.T) {
	ts := setupTestServer(t)
	ts.saveOER(t, "low", "Geometry")
	for range 3 {
		ts.saveOER(t, "high", "Trigonometry")
	}

	resp := ts.api.Get("/api/searchOERs?sort=count")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[search.SearchResult](t, resp)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "high", result.Hits[0].ID)
	assert.Equal(t, int64(3), result.Hits[0].Count)
}

func TestSearchOERs_FollowsDeletes(t *testing.T) {
	ts := setupTestServer(t)
	ts.saveOER(t, "oer-1", "Photosynthesis basics")

	require.Equal(t, http.StatusOK, ts.api.Put("/api/updateCount/oer-1").Code)

	result := decode[search.SearchResult](t, ts.api.Get("/api/searchOERs?q=photosynthesis"))
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Hits)
}

func TestSearchOERs_ExcludesDocuments(t *testing.T) {
	ts := setupTestServer(t)
	require.Equal(t, http.StatusOK,
		ts.api.Post("/api/saveLearningPath", map[string]any{"title": "Photosynthesis path"}).Code)

	result := decode[search.SearchResult](t, ts.api.Get("/api/searchOERs?q=photosynthesis"))
	assert.Zero(t, result.Total)

	all := decode[search.SearchResult](t, ts.api.Get("/api/search?q=photosynthesis"))
	require.Len(t, all.Hits, 1)
	assert.Equal(t, search.DocTypePath, all.Hits[0].Type)
}

func TestSearchOERs_InvalidParams(t *testing.T) {
	ts := setupTestServer(t)

	assertError(t, ts.api.Get("/api/searchOERs?sort=bogus"), http.StatusBadRequest, "VALIDATION")
	assertError(t, ts.api.Get("/api/searchOERs?limit=0"), http.StatusBadRequest, "VALIDATION")
	assertError(t, ts.api.Get("/api/searchOERs?limit=500"), http.StatusBadRequest, "VALIDATION")
}

func TestSearch_Disabled(t *testing.T) {
	ts := setupTestServer(t, withoutSearch())
	ts.saveOER(t, "oer-1", "Photosynthesis basics")

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/searchOERs?q=photosynthesis").Code)
}
