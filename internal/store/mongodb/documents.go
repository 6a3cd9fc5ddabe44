package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	now := time.Now().UTC()

	var rec documentRecord
	err := s.db.Collection(doc.Kind.Collection()).FindOneAndUpdate(ctx,
		bson.M{"_id": doc.ID},
		bson.M{
			"$set":         bson.M{"body": body, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		return nil, wrapErr("save document", err)
	}
	return rec.toDomain(doc.Kind), nil
}

// GetDocument retrieves a document of the given kind.
func (s *Store) GetDocument(ctx context.Context, kind domain.DocumentKind, id string) (*domain.Document, error) {
	var rec documentRecord
	if err := s.db.Collection(kind.Collection()).FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, wrapErr("get document", err)
	}
	return rec.toDomain(kind), nil
}

// ListDocuments returns every document of the given kind ordered by ID.
func (s *Store) ListDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	cur, err := s.db.Collection(kind.Collection()).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	defer cur.Close(ctx)

	docs := []*domain.Document{}
	for cur.Next(ctx) {
		var rec documentRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, wrapErr("list documents", err)
		}
		docs = append(docs, rec.toDomain(kind))
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Returns store.ErrNotFound if absent.
func (s *Store) DeleteDocument(ctx context.Context, kind domain.DocumentKind, id string) error {
	res, err := s.db.Collection(kind.Collection()).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("delete document", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
