package pgsql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// UpsertKeyword inserts value if absent. The bool reports whether this call created it.
func (s *Store) UpsertKeyword(ctx context.Context, value string) (*domain.Keyword, bool, error) {
	m := keywordModel{Value: value, CreatedAt: time.Now().UTC()}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		return nil, false, wrapErr("upsert keyword", res.Error)
	}
	if res.RowsAffected == 1 {
		return &domain.Keyword{Value: value, CreatedAt: m.CreatedAt}, true, nil
	}

	kw := &domain.Keyword{Value: value, CreatedAt: m.CreatedAt}
	var existing keywordModel
	err := s.db.WithContext(ctx).Where("value = ?", value).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Cleared between the insert and the read.
	case err != nil:
		return nil, false, wrapErr("read keyword", err)
	default:
		kw.CreatedAt = existing.CreatedAt.UTC()
	}
	return kw, false, nil
}

// ListKeywords returns every keyword value in lexical order.
func (s *Store) ListKeywords(ctx context.Context) ([]string, error) {
	values := []string{}
	err := s.db.WithContext(ctx).
		Model(&keywordModel{}).
		Order(`value COLLATE "C" ASC`).
		Pluck("value", &values).Error
	if err != nil {
		return nil, wrapErr("list keywords", err)
	}
	return values, nil
}

// ClearKeywords removes every keyword and returns how many were removed.
func (s *Store) ClearKeywords(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&keywordModel{})
	if res.Error != nil {
		return 0, wrapErr("clear keywords", res.Error)
	}
	return res.RowsAffected, nil
}
