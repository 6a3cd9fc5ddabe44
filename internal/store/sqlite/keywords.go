package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// UpsertKeyword inserts value if absent. The bool reports whether this call created it.
func (s *Store) UpsertKeyword(ctx context.Context, value string) (*domain.Keyword, bool, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO keywords (value, created_at)
		VALUES (?, ?)
		ON CONFLICT(value) DO NOTHING`,
		value, formatTime(now),
	)
	if err != nil {
		return nil, false, wrapErr("upsert keyword", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, wrapErr("upsert keyword", err)
	}
	if n == 1 {
		return &domain.Keyword{Value: value, CreatedAt: now}, true, nil
	}

	kw := &domain.Keyword{Value: value, CreatedAt: now}
	var createdAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM keywords WHERE value = ?`, value).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Cleared between the insert and the read.
	case err != nil:
		return nil, false, wrapErr("read keyword", err)
	default:
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, false, wrapErr("read keyword", err)
		}
		kw.CreatedAt = t
	}
	return kw, false, nil
}

// ListKeywords returns every keyword value in lexical order.
func (s *Store) ListKeywords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value FROM keywords ORDER BY value ASC`)
	if err != nil {
		return nil, wrapErr("list keywords", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, wrapErr("list keywords", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list keywords", err)
	}
	return values, nil
}

// ClearKeywords removes every keyword and returns how many were removed.
func (s *Store) ClearKeywords(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keywords`)
	if err != nil {
		return 0, wrapErr("clear keywords", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("clear keywords", err)
	}
	return n, nil
}
