// Package store defines the persistence contract for the OER hub.
//
// Backends live in subpackages (badgerdb, sqlite, mongodb, pgsql). Each one
// expresses counter and upsert operations as atomic storage operations, or
// as a read-modify-write under a per-key exclusion scope, never as an
// unguarded existence check followed by a write.
package store

import (
	"context"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// Store is the keyed record store backing every endpoint.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Keywords. Values arrive already normalized.
	UpsertKeyword(ctx context.Context, value string) (*domain.Keyword, bool, error)
	ListKeywords(ctx context.Context) ([]string, error)
	ClearKeywords(ctx context.Context) (int64, error)

	// Resources (OERs)
	UpsertResource(ctx context.Context, in domain.ResourceInput, initialCount int64) (*domain.Resource, bool, error)
	GetResource(ctx context.Context, id string) (*domain.Resource, error)
	DecrementResourceCount(ctx context.Context, id string) (*domain.Resource, bool, error)
	AdjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error)
	ResetAllCounts(ctx context.Context) (int64, error)
	DeleteAllResources(ctx context.Context) (int64, error)
	TopResources(ctx context.Context, limit int) ([]*domain.Resource, error)
	ListResources(ctx context.Context) ([]*domain.Resource, error)

	// Learning scenarios and paths
	SaveDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	GetDocument(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error)
	DeleteDocument(ctx context.Context, kind domain.DocumentKind, id string) error
}
