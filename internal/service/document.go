package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oerhub/oerhub-server/internal/domain"
	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/id"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/validation"
)

// DocumentService stores learning scenarios and learning paths. Bodies pass
// through untouched; only the id is checked.
type DocumentService struct {
	store  store.Store
	search *SearchService
	logger *slog.Logger
}

// NewDocumentService creates a new document service. search may be nil.
func NewDocumentService(store store.Store, search *SearchService, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		store:  store,
		search: search,
		logger: logger,
	}
}

// SaveDocument stores body under the id it carries in its "id" field, or
// under a generated id when it carries none. The stored body always holds
// the effective id.
func (s *DocumentService) SaveDocument(ctx context.Context, kind domain.DocumentKind, body map[string]any) (*domain.Document, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validationf("unknown document kind %q", kind)
	}
	if body == nil {
		return nil, domainerrors.Validation("document body is required")
	}

	var docID string
	switch v := body["id"].(type) {
	case nil:
	case string:
		docID = strings.TrimSpace(v)
	default:
		return nil, domainerrors.ValidationWithDetails("id must be a string", map[string]string{"id": "must be a string"})
	}

	if docID == "" {
		generated, err := id.ForDocument(kind)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate id")
		}
		docID = generated
	} else if !validation.ValidRecordID(docID) {
		return nil, domainerrors.ValidationWithDetails("id is invalid",
			map[string]string{"id": "must be 1-256 printable characters without '/'"})
	}

	stored := make(map[string]any, len(body))
	for k, v := range body {
		stored[k] = v
	}
	stored["id"] = docID

	doc, err := s.store.SaveDocument(ctx, &domain.Document{ID: docID, Kind: kind, Body: stored})
	if err != nil {
		return nil, fromStore(ctx, s.logger, "save document", err, notFoundMessage(kind))
	}

	s.search.IndexDocument(ctx, doc)
	s.logger.DebugContext(ctx, "document saved", "kind", kind, "id", docID)
	return doc, nil
}

// GetDocument returns a single document.
func (s *DocumentService) GetDocument(ctx context.Context, kind domain.DocumentKind, docID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, kind, docID)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "get document", err, notFoundMessage(kind))
	}
	return doc, nil
}

// ListDocuments returns every document of a kind.
func (s *DocumentService) ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx, kind)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "list documents", err, notFoundMessage(kind))
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return docs, nil
}

// DeleteDocument removes a document.
func (s *DocumentService) DeleteDocument(ctx context.Context, kind domain.DocumentKind, docID string) error {
	if err := s.store.DeleteDocument(ctx, kind, docID); err != nil {
		return fromStore(ctx, s.logger, "delete document", err, notFoundMessage(kind))
	}
	s.search.RemoveDocument(ctx, kind, docID)
	return nil
}

func notFoundMessage(kind domain.DocumentKind) string {
	if kind == domain.KindLearningPath {
		return "learning path not found"
	}
	return "learning scenario not found"
}
