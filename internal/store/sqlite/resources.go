package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// resourceColumns is the ordered list of columns selected in resource queries.
// Must match the scan order in scanResource.
const resourceColumns = `id, title, description, count, likes, created_at, updated_at`

func scanResource(sc scanner) (*domain.Resource, error) {
	var (
		r         domain.Resource
		createdAt string
		updatedAt string
	)

	if err := sc.Scan(&r.ID, &r.Title, &r.Description, &r.Count, &r.Likes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertResource creates the resource with initialCount or folds the save
// into the existing record. The bool reports whether this call created it.
func (s *Store) UpsertResource(ctx context.Context, in domain.ResourceInput, initialCount int64) (*domain.Resource, bool, error) {
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	defer tx.Rollback()

	// The insert runs first so the transaction holds the write lock before
	// anything is read.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO resources (id, title, description, count, likes, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		in.ID, in.Title, in.Description, initialCount, now, now,
	)
	if err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	created := n == 1

	var row *sql.Row
	if created {
		row = tx.QueryRowContext(ctx,
			`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, in.ID)
	} else {
		row = tx.QueryRowContext(ctx, `
			UPDATE resources SET
				count = count + 1,
				title = ?,
				description = COALESCE(NULLIF(?, ''), description),
				updated_at = ?
			WHERE id = ?
			RETURNING `+resourceColumns,
			in.Title, in.Description, now, in.ID,
		)
	}

	r, err := scanResource(row)
	if err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, wrapErr("upsert resource", err)
	}
	return r, created, nil
}

// GetResource retrieves a resource by ID.
// Returns store.ErrNotFound if the resource does not exist.
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)

	r, err := scanResource(row)
	if err != nil {
		return nil, wrapErr("get resource", err)
	}
	return r, nil
}

// DecrementResourceCount lowers the count by one, deleting the record when
// the count would reach zero. The bool reports whether the record was removed.
func (s *Store) DecrementResourceCount(ctx context.Context, id string) (*domain.Resource, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, wrapErr("decrement resource", err)
	}
	defer tx.Rollback()

	r, err := scanResource(tx.QueryRowContext(ctx, `
		UPDATE resources SET count = count - 1, updated_at = ?
		WHERE id = ? AND count > 1
		RETURNING `+resourceColumns,
		formatTime(time.Now()), id,
	))
	removed := false
	if errors.Is(err, sql.ErrNoRows) {
		r, err = scanResource(tx.QueryRowContext(ctx, `
			DELETE FROM resources
			WHERE id = ? AND count <= 1
			RETURNING `+resourceColumns,
			id,
		))
		if err == nil {
			r.Count = 0
			removed = true
		}
	}
	if err != nil {
		return nil, false, wrapErr("decrement resource", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, wrapErr("decrement resource", err)
	}
	return r, removed, nil
}

// AdjustLikes adds delta to the like count, flooring at zero.
func (s *Store) AdjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error) {
	r, err := scanResource(s.db.QueryRowContext(ctx, `
		UPDATE resources SET likes = MAX(likes + ?, 0), updated_at = ?
		WHERE id = ?
		RETURNING `+resourceColumns,
		delta, formatTime(time.Now()), id,
	))
	if err != nil {
		return nil, wrapErr("adjust likes", err)
	}
	return r, nil
}

// ResetAllCounts sets every resource's count to zero, keeping the records.
func (s *Store) ResetAllCounts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE resources SET count = 0, updated_at = ?`, formatTime(time.Now()))
	if err != nil {
		return 0, wrapErr("reset counts", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("reset counts", err)
	}
	return n, nil
}

// DeleteAllResources removes every resource and returns how many were removed.
func (s *Store) DeleteAllResources(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources`)
	if err != nil {
		return 0, wrapErr("delete resources", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("delete resources", err)
	}
	return n, nil
}

// TopResources returns up to limit resources ordered by count descending.
func (s *Store) TopResources(ctx context.Context, limit int) ([]*domain.Resource, error) {
	if limit <= 0 {
		return []*domain.Resource{}, nil
	}
	return s.queryResources(ctx, "top resources",
		`SELECT `+resourceColumns+` FROM resources ORDER BY count DESC, id ASC LIMIT ?`, limit)
}

// ListResources returns every resource ordered by ID.
func (s *Store) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	return s.queryResources(ctx, "list resources",
		`SELECT `+resourceColumns+` FROM resources ORDER BY id ASC`)
}

func (s *Store) queryResources(ctx context.Context, op, query string, args ...any) ([]*domain.Resource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	resources := []*domain.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return resources, nil
}
