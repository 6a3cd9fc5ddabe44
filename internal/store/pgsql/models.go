package pgsql

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/oerhub/oerhub-server/internal/domain"
)

type keywordModel struct {
	Value     string    `gorm:"type:text;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (keywordModel) TableName() string { return "keywords" }

type resourceModel struct {
	ID          string    `gorm:"type:text;primaryKey"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	Count       int64     `gorm:"not null;default:0;check:count >= 0;index:idx_resources_count,sort:desc"`
	Likes       int64     `gorm:"not null;default:0;check:likes >= 0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (resourceModel) TableName() string { return "resources" }

func (m *resourceModel) toDomain() *domain.Resource {
	return &domain.Resource{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Count:       m.Count,
		Likes:       m.Likes,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type documentModel struct {
	Kind      string         `gorm:"type:text;primaryKey"`
	ID        string         `gorm:"type:text;primaryKey"`
	Body      datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (documentModel) TableName() string { return "documents" }

func (m *documentModel) toDomain() (*domain.Document, error) {
	body := map[string]any{}
	if len(m.Body) > 0 {
		if err := json.Unmarshal(m.Body, &body); err != nil {
			return nil, err
		}
	}
	return &domain.Document{
		ID:        m.ID,
		Kind:      domain.DocumentKind(m.Kind),
		Body:      body,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}
