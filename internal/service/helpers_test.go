package service

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/search"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/badgerdb"
	"github.com/oerhub/oerhub-server/internal/validation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func defaultPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		InitialCount:     1,
		MissingCount:     config.PolicyNotFound,
		MissingLike:      config.PolicyNotFound,
		DuplicateKeyword: config.PolicyUpsert,
		TopLimit:         5,
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := badgerdb.Open("", nil, badgerdb.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestSearch(t *testing.T, st store.Store) *SearchService {
	t.Helper()

	index, err := search.NewSearchIndex(search.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return NewSearchService(index, st, testLogger())
}

type testServices struct {
	store     store.Store
	search    *SearchService
	keywords  *KeywordService
	resources *ResourceService
	documents *DocumentService
}

func newTestServices(t *testing.T, policy config.PolicyConfig) *testServices {
	t.Helper()

	st := newTestStore(t)
	srch := newTestSearch(t, st)
	logger := testLogger()

	return &testServices{
		store:     st,
		search:    srch,
		keywords:  NewKeywordService(st, policy, logger),
		resources: NewResourceService(st, srch, policy, validation.New(), logger),
		documents: NewDocumentService(st, srch, logger),
	}
}
