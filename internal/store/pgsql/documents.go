package pgsql

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// SaveDocument inserts or replaces a document. CreatedAt survives replacement.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if !doc.Kind.Valid() || doc.ID == "" {
		return nil, store.ErrInvalidInput.WithMessage("document kind and id are required")
	}

	body := doc.Body
	if body == nil {
		body = map[string]any{}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage("document body is not serializable").WithCause(err)
	}

	now := time.Now().UTC()
	m := documentModel{
		Kind:      string(doc.Kind),
		ID:        doc.ID,
		Body:      datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "kind"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(&m).Error
	if err != nil {
		return nil, wrapErr("save document", err)
	}

	saved, err := m.toDomain()
	if err != nil {
		return nil, wrapErr("save document", err)
	}
	return saved, nil
}

// GetDocument retrieves a document of the given kind.
func (s *Store) GetDocument(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	var m documentModel
	if err := s.db.WithContext(ctx).
		Where("kind = ? AND id = ?", string(kind), id).
		Take(&m).Error; err != nil {
		return nil, wrapErr("get document", err)
	}

	doc, err := m.toDomain()
	if err != nil {
		return nil, wrapErr("get document", err)
	}
	return doc, nil
}

// ListDocuments returns every document of the given kind ordered by ID.
func (s *Store) ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	var models []documentModel
	if err := s.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order(`id COLLATE "C" ASC`).
		Find(&models).Error; err != nil {
		return nil, wrapErr("list documents", err)
	}

	docs := make([]*domain.Document, 0, len(models))
	for i := range models {
		d, err := models[i].toDomain()
		if err != nil {
			return nil, wrapErr("list documents", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// DeleteDocument removes a document. Returns store.ErrNotFound if absent.
func (s *Store) DeleteDocument(ctx context.Context, kind domain.DocumentKind, id string) error {
	res := s.db.WithContext(ctx).
		Where("kind = ? AND id = ?", string(kind), id).
		Delete(&documentModel{})
	if res.Error != nil {
		return wrapErr("delete document", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
