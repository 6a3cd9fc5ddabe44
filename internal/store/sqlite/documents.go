package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

const documentColumns = `kind, id, body, created_at, updated_at`

func scanDocument(sc scanner) (*domain.Document, error) {
	var (
		d         domain.Document
		kind      string
		body      string
		createdAt string
		updatedAt string
	)

	if err := sc.Scan(&kind, &d.ID, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Kind = domain.DocumentKind(kind)

	if err := json.Unmarshal([]byte(body), &d.Body); err != nil {
		return nil, fmt.Errorf("unmarshal document body: %w", err)
	}

	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDocument inserts or replaces a document. CreatedAt survives replacement.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if !doc.Kind.Valid() || doc.ID == "" {
		return nil, store.ErrInvalidInput.WithMessage("document kind and id are required")
	}

	body, err := json.Marshal(doc.Body)
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage("document body is not serializable").WithCause(err)
	}
	now := formatTime(time.Now())

	saved, err := scanDocument(s.db.QueryRowContext(ctx, `
		INSERT INTO documents (kind, id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
		RETURNING `+documentColumns,
		string(doc.Kind), doc.ID, string(body), now, now,
	))
	if err != nil {
		return nil, wrapErr("save document", err)
	}
	return saved, nil
}

// GetDocument retrieves a document of the given kind.
func (s *Store) GetDocument(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE kind = ? AND id = ?`, string(kind), id))
	if err != nil {
		return nil, wrapErr("get document", err)
	}
	return d, nil
}

// ListDocuments returns every document of the given kind ordered by ID.
func (s *Store) ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE kind = ? ORDER BY id ASC`, string(kind))
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, wrapErr("list documents", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Returns store.ErrNotFound if absent.
func (s *Store) DeleteDocument(ctx context.Context, kind domain.DocumentKind, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return wrapErr("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete document", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
