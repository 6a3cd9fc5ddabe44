package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// UpsertKeyword inserts value if absent. The bool reports whether this call created it.
func (s *Store) UpsertKeyword(ctx context.Context, value string) (*domain.Keyword, bool, error) {
	now := time.Now().UTC()

	res, err := s.keywords.UpdateOne(ctx,
		bson.M{"_id": value},
		bson.M{"$setOnInsert": bson.M{"created_at": now}},
		options.Update().SetUpsert(true),
	)
	switch {
	case mongo.IsDuplicateKeyError(err):
		// A concurrent upsert inserted it first.
	case err != nil:
		return nil, false, wrapErr("upsert keyword", err)
	case res.UpsertedCount == 1:
		return &domain.Keyword{Value: value, CreatedAt: now}, true, nil
	}

	kw := &domain.Keyword{Value: value, CreatedAt: now}
	var rec keywordRecord
	err = s.keywords.FindOne(ctx, bson.M{"_id": value}).Decode(&rec)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Cleared between the upsert and the read.
	case err != nil:
		return nil, false, wrapErr("read keyword", err)
	default:
		kw.CreatedAt = rec.CreatedAt.UTC()
	}
	return kw, false, nil
}

// ListKeywords returns every keyword value in lexical order.
func (s *Store) ListKeywords(ctx context.Context) ([]string, error) {
	cur, err := s.keywords.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr("list keywords", err)
	}
	defer cur.Close(ctx)

	values := []string{}
	for cur.Next(ctx) {
		var rec keywordRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, wrapErr("list keywords", err)
		}
		values = append(values, rec.Value)
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("list keywords", err)
	}
	return values, nil
}

// ClearKeywords removes every keyword and returns how many were removed.
func (s *Store) ClearKeywords(ctx context.Context) (int64, error) {
	res, err := s.keywords.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("clear keywords", err)
	}
	return res.DeletedCount, nil
}
