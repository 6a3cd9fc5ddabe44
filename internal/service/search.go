package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/domain"
	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/search"
	"github.com/oerhub/oerhub-server/internal/store"
)

// maxSearchQueryLength bounds the free-text query, in bytes.
const maxSearchQueryLength = 512

// SearchService keeps the full-text index in step with the store and runs
// queries against it.
//
// The store stays the source of truth: index updates are best effort and
// failures are logged, never returned to the write path. A nil
// *SearchService is valid and does nothing, which is how search is disabled.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	logger *slog.Logger

	// Serializes read-then-index per OER id.
	resourceLocks [64]sync.Mutex
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// SearchRequest is a user query.
type SearchRequest struct {
	Query  string
	Types  []search.DocType
	Limit  int // 0 means 20
	Offset int
	SortBy string
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*search.SearchResult, error) {
	if s == nil {
		return nil, domainerrors.Unavailable(nil, "search is disabled")
	}

	params := search.DefaultSearchParams()
	params.Query = strings.TrimSpace(req.Query)
	params.Types = req.Types
	params.Offset = req.Offset
	if req.Limit != 0 {
		params.Limit = req.Limit
	}
	if req.SortBy != "" {
		params.SortBy = req.SortBy
	}

	switch {
	case len(params.Query) > maxSearchQueryLength:
		return nil, domainerrors.Validationf("q must not exceed %d characters", maxSearchQueryLength)
	case params.Limit < 1 || params.Limit > config.MaxTopLimit:
		return nil, domainerrors.Validationf("limit must be between 1 and %d", config.MaxTopLimit)
	case params.Offset < 0:
		return nil, domainerrors.Validation("offset must not be negative")
	}
	switch params.SortBy {
	case search.SortRelevance, search.SortCount, search.SortLikes, search.SortRecent:
	default:
		return nil, domainerrors.Validation("sort must be one of: relevance count likes recent")
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "search failed", "query", params.Query, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return result, nil
}

// IndexResource adds or refreshes an OER in the index.
func (s *SearchService) IndexResource(ctx context.Context, r *domain.Resource) {
	if s == nil || r == nil {
		return
	}
	if err := s.index.IndexDocument(search.ResourceToSearchDocument(r)); err != nil {
		s.logger.WarnContext(ctx, "failed to index oer", "id", r.ID, "error", err)
	}
}

// SyncResource re-reads an OER from the store and indexes what it finds,
// removing the entry when the OER is gone. Concurrent calls for the same id
// are serialized, so the last one to finish indexes the latest stored state.
func (s *SearchService) SyncResource(ctx context.Context, id string) {
	if s == nil {
		return
	}

	mu := &s.resourceLocks[lockSlot(id, len(s.resourceLocks))]
	mu.Lock()
	defer mu.Unlock()

	r, err := s.store.GetResource(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.RemoveResource(ctx, id)
	case err != nil:
		s.logger.WarnContext(ctx, "failed to read oer for indexing", "id", id, "error", err)
	default:
		s.IndexResource(ctx, r)
	}
}

func lockSlot(id string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(n))
}

// RemoveResource drops an OER from the index.
func (s *SearchService) RemoveResource(ctx context.Context, id string) {
	if s == nil {
		return
	}
	if err := s.index.DeleteDocument(search.DocTypeOER, id); err != nil {
		s.logger.WarnContext(ctx, "failed to remove oer from index", "id", id, "error", err)
	}
}

// RemoveAllResources drops every OER from the index.
func (s *SearchService) RemoveAllResources(ctx context.Context) {
	if s == nil {
		return
	}
	if _, err := s.index.DeleteType(search.DocTypeOER); err != nil {
		s.logger.WarnContext(ctx, "failed to clear oers from index", "error", err)
	}
}

// IndexDocument adds or refreshes a learning scenario or path. Documents
// without a title are removed from the index instead.
func (s *SearchService) IndexDocument(ctx context.Context, doc *domain.Document) {
	if s == nil || doc == nil {
		return
	}
	sd := search.DocumentToSearchDocument(doc)
	if sd == nil {
		s.RemoveDocument(ctx, doc.Kind, doc.ID)
		return
	}
	if err := s.index.IndexDocument(sd); err != nil {
		s.logger.WarnContext(ctx, "failed to index document", "kind", doc.Kind, "id", doc.ID, "error", err)
	}
}

// RemoveDocument drops a learning scenario or path from the index.
func (s *SearchService) RemoveDocument(ctx context.Context, kind domain.DocumentKind, id string) {
	if s == nil {
		return
	}
	if err := s.index.DeleteDocument(search.DocTypeFor(kind), id); err != nil {
		s.logger.WarnContext(ctx, "failed to remove document from index", "kind", kind, "id", id, "error", err)
	}
}

// ReindexResources replaces every OER entry with the current store contents.
func (s *SearchService) ReindexResources(ctx context.Context) error {
	if s == nil {
		return nil
	}

	resources, err := s.store.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("list oers: %w", err)
	}
	if _, err := s.index.DeleteType(search.DocTypeOER); err != nil {
		return fmt.Errorf("clear oers: %w", err)
	}

	docs := make([]*search.SearchDocument, 0, len(resources))
	for _, r := range resources {
		docs = append(docs, search.ResourceToSearchDocument(r))
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index oers: %w", err)
	}
	return nil
}

// Reindex rebuilds the whole index from the store.
func (s *SearchService) Reindex(ctx context.Context) error {
	if s == nil {
		return nil
	}
	start := time.Now()

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	resources, err := s.store.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("list oers: %w", err)
	}
	docs := make([]*search.SearchDocument, 0, len(resources))
	for _, r := range resources {
		docs = append(docs, search.ResourceToSearchDocument(r))
	}

	for _, kind := range []domain.DocumentKind{domain.KindLearningScenario, domain.KindLearningPath} {
		stored, err := s.store.ListDocuments(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s documents: %w", kind, err)
		}
		for _, d := range stored {
			if sd := search.DocumentToSearchDocument(d); sd != nil {
				docs = append(docs, sd)
			}
		}
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.InfoContext(ctx, "search index rebuilt",
		"entries", len(docs),
		"duration", time.Since(start),
	)
	return nil
}

// DocumentCount returns the number of indexed entries.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s == nil {
		return 0, nil
	}
	return s.index.DocumentCount()
}
