package pgsql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// upsertResourceSQL inserts or increments in one statement. xmax is zero
// only for a freshly inserted row version, which gives the created flag.
const upsertResourceSQL = `
INSERT INTO resources (id, title, description, count, likes, created_at, updated_at)
VALUES (@id, @title, @description, @initial, 0, @now, @now)
ON CONFLICT (id) DO UPDATE SET
	count       = resources.count + 1,
	title       = EXCLUDED.title,
	description = COALESCE(NULLIF(EXCLUDED.description, ''), resources.description),
	updated_at  = EXCLUDED.updated_at
RETURNING id, title, description, count, likes, created_at, updated_at, (xmax = 0) AS inserted`

// UpsertResource creates the resource with initialCount or folds the save
// into the existing record. The bool reports whether this call created it.
func (s *Store) UpsertResource(ctx context.Context, in domain.ResourceInput, initialCount int64) (*domain.Resource, bool, error) {
	var (
		m        resourceModel
		inserted bool
	)

	row := s.db.WithContext(ctx).Raw(upsertResourceSQL, map[string]any{
		"id":          in.ID,
		"title":       in.Title,
		"description": in.Description,
		"initial":     initialCount,
		"now":         time.Now().UTC(),
	}).Row()
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Count, &m.Likes, &m.CreatedAt, &m.UpdatedAt, &inserted); err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	return m.toDomain(), inserted, nil
}

// GetResource retrieves a resource by ID.
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	var m resourceModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, wrapErr("get resource", err)
	}
	return m.toDomain(), nil
}

// DecrementResourceCount lowers the count by one, deleting the record when
// the count would reach zero. The bool reports whether the record was removed.
// The row is locked with SELECT ... FOR UPDATE for the whole transaction.
func (s *Store) DecrementResourceCount(ctx context.Context, id string) (*domain.Resource, bool, error) {
	var (
		m       resourceModel
		removed bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&m).Error; err != nil {
			return err
		}

		if m.toDomain().ExhaustedAfterDecrement() {
			removed = true
			m.Count = 0
			return tx.Where("id = ?", id).Delete(&resourceModel{}).Error
		}

		return tx.Model(&m).
			Clauses(clause.Returning{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"count":      gorm.Expr("count - 1"),
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return nil, false, wrapErr("decrement resource", err)
	}
	return m.toDomain(), removed, nil
}

// AdjustLikes adds delta to the like count, flooring at zero.
func (s *Store) AdjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error) {
	var m resourceModel

	res := s.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"likes":      gorm.Expr("GREATEST(likes + ?, 0)", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, wrapErr("adjust likes", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return m.toDomain(), nil
}

// ResetAllCounts sets every resource's count to zero, keeping the records.
func (s *Store) ResetAllCounts(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&resourceModel{}).
		Updates(map[string]any{"count": 0, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, wrapErr("reset counts", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteAllResources removes every resource and returns how many were removed.
func (s *Store) DeleteAllResources(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&resourceModel{})
	if res.Error != nil {
		return 0, wrapErr("delete resources", res.Error)
	}
	return res.RowsAffected, nil
}

// TopResources returns up to limit resources ordered by count descending.
func (s *Store) TopResources(ctx context.Context, limit int) ([]*domain.Resource, error) {
	if limit <= 0 {
		return []*domain.Resource{}, nil
	}
	return s.findResources(ctx, "top resources",
		s.db.WithContext(ctx).Order(`count DESC, id COLLATE "C" ASC`).Limit(limit))
}

// ListResources returns every resource ordered by ID.
func (s *Store) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	return s.findResources(ctx, "list resources",
		s.db.WithContext(ctx).Order(`id COLLATE "C" ASC`))
}

func (s *Store) findResources(_ context.Context, op string, q *gorm.DB) ([]*domain.Resource, error) {
	var models []resourceModel
	if err := q.Find(&models).Error; err != nil {
		return nil, wrapErr(op, err)
	}

	resources := make([]*domain.Resource, 0, len(models))
	for i := range models {
		resources = append(resources, models[i].toDomain())
	}
	return resources, nil
}
