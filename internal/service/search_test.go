package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/domain"
	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/search"
)

func TestSearch_Validation(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	tests := []struct {
		name string
		req  SearchRequest
	}{
		{name: "limit too large", req: SearchRequest{Limit: 101}},
		{name: "negative limit", req: SearchRequest{Limit: -1}},
		{name: "negative offset", req: SearchRequest{Offset: -1}},
		{name: "unknown sort", req: SearchRequest{SortBy: "title"}},
		{name: "query too long", req: SearchRequest{Query: strings.Repeat("q", maxSearchQueryLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.search.Search(ctx, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestSearch_NilServiceIsDisabled(t *testing.T) {
	var s *SearchService

	_, err := s.Search(context.Background(), SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

	// Index maintenance on a disabled service is a no-op.
	s.IndexResource(context.Background(), &domain.Resource{ID: "x"})
	s.RemoveResource(context.Background(), "x")
	require.NoError(t, s.Reindex(context.Background()))

	count, err := s.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReindex_FromStore(t *testing.T) {
	svc := newTestServices(t, defaultPolicy())
	ctx := context.Background()

	// Write straight to the store so the index knows nothing.
	_, _, err := svc.store.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Quantum Mechanics"}, 1)
	require.NoError(t, err)
	_, err = svc.store.SaveDocument(ctx, &domain.Document{
		ID:   "scn-1",
		Kind: domain.KindLearningScenario,
		Body: map[string]any{"title": "Quantum lab"},
	})
	require.NoError(t, err)
	_, err = svc.store.SaveDocument(ctx, &domain.Document{
		ID:   "path-1",
		Kind: domain.KindLearningPath,
		Body: map[string]any{"nodes": []any{}},
	})
	require.NoError(t, err)

	count, err := svc.search.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.search.Reindex(ctx))

	count, err = svc.search.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "untitled documents are not indexed")

	res, err := svc.search.Search(ctx, SearchRequest{Query: "quantum", Types: []search.DocType{search.DocTypeOER}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "oer-1", res.Hits[0].ID)
}
