package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// SaveDocument inserts or replaces a document. CreatedAt survives replacement.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if !doc.Kind.Valid() || doc.ID == "" {
		return nil, store.ErrInvalidInput.WithMessage("document kind and id are required")
	}

	saved := *doc
	err := s.update(ctx, "save document", func(txn *badger.Txn) error {
		key := writeKey(documentKindPrefix(doc.Kind), doc.ID)
		now := time.Now().UTC()

		var existing domain.Document
		err := getJSON(txn, key, &existing)
		switch {
		case err == nil:
			saved.CreatedAt = existing.CreatedAt
		case errors.Is(err, store.ErrNotFound):
			saved.CreatedAt = now
		default:
			return err
		}
		saved.UpdatedAt = now
		return setJSON(txn, key, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetDocument retrieves a document of the given kind.
func (s *Store) GetDocument(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	var doc domain.Document
	err := s.view(ctx, "get document", func(txn *badger.Txn) error {
		key := buildKey(documentKindPrefix(kind), id)
		defer releaseKey(key)
		return getJSON(txn, key, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns every document of the given kind ordered by ID.
func (s *Store) ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	docs := []*domain.Document{}
	err := s.view(ctx, "list documents", func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(documentKindPrefix(kind)), func(_, val []byte) error {
			var d domain.Document
			if err := json.Unmarshal(val, &d); err != nil {
				return fmt.Errorf("unmarshal document: %w", err)
			}
			docs = append(docs, &d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document. Returns store.ErrNotFound if absent.
func (s *Store) DeleteDocument(ctx context.Context, kind domain.DocumentKind, id string) error {
	return s.update(ctx, "delete document", func(txn *badger.Txn) error {
		key := writeKey(documentKindPrefix(kind), id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}
