package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// maxCASAttempts bounds the decrement loop. Each iteration loses only when
// another writer changed the same record in between.
const maxCASAttempts = 64

// UpsertResource creates the resource with initialCount or folds the save
// into the existing record. The bool reports whether this call created it.
//
// The update is a single pipeline upsert. The pre-image tells whether the
// document existed; the post-image is derived from it exactly as the
// pipeline computed it.
func (s *Store) UpsertResource(ctx context.Context, in domain.ResourceInput, initialCount int64) (*domain.Resource, bool, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	description := any(bson.M{"$ifNull": bson.A{"$description", ""}})
	if in.Description != "" {
		description = bson.M{"$literal": in.Description}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"count": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$type": "$count"}, "missing"}},
				initialCount,
				bson.M{"$add": bson.A{"$count", 1}},
			}},
			"likes":       bson.M{"$ifNull": bson.A{"$likes", int64(0)}},
			"title":       bson.M{"$literal": in.Title},
			"description": description,
			"created_at":  bson.M{"$ifNull": bson.A{"$created_at", now}},
			"updated_at":  now,
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	for attempt := 0; ; attempt++ {
		var before resourceRecord
		err := s.resources.FindOneAndUpdate(ctx, bson.M{"_id": in.ID}, pipeline, opts).Decode(&before)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return domain.NewResource(in, initialCount, now), true, nil
		case err == nil:
			r := before.toDomain()
			r.ApplySave(in, now)
			return r, false, nil
		case mongo.IsDuplicateKeyError(err) && attempt < maxCASAttempts:
			// Lost an insert race; the next attempt takes the update path.
			continue
		default:
			return nil, false, wrapErr("upsert resource", err)
		}
	}
}

// GetResource retrieves a resource by ID.
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	var rec resourceRecord
	if err := s.resources.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, wrapErr("get resource", err)
	}
	return rec.toDomain(), nil
}

// DecrementResourceCount lowers the count by one, deleting the record when
// the count would reach zero. The bool reports whether the record was removed.
func (s *Store) DecrementResourceCount(ctx context.Context, id string) (*domain.Resource, bool, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for range maxCASAttempts {
		var rec resourceRecord
		err := s.resources.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "count": bson.M{"$gt": 1}},
			bson.M{
				"$inc": bson.M{"count": -1},
				"$set": bson.M{"updated_at": time.Now().UTC()},
			},
			after,
		).Decode(&rec)
		if err == nil {
			return rec.toDomain(), false, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, wrapErr("decrement resource", err)
		}

		err = s.resources.FindOneAndDelete(ctx,
			bson.M{"_id": id, "count": bson.M{"$lte": 1}},
		).Decode(&rec)
		if err == nil {
			r := rec.toDomain()
			r.Count = 0
			return r, true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, wrapErr("decrement resource", err)
		}

		// Neither matched: the record is gone or its count moved between
		// the two operations.
		n, err := s.resources.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, false, wrapErr("decrement resource", err)
		}
		if n == 0 {
			return nil, false, store.ErrNotFound
		}
	}

	return nil, false, store.Unavailable("decrement resource",
		fmt.Errorf("record %q kept changing after %d attempts", id, maxCASAttempts))
}

// AdjustLikes adds delta to the like count, flooring at zero.
func (s *Store) AdjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes":      bson.M{"$max": bson.A{int64(0), bson.M{"$add": bson.A{"$likes", delta}}}},
			"updated_at": time.Now().UTC(),
		}}},
	}

	var rec resourceRecord
	err := s.resources.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		return nil, wrapErr("adjust likes", err)
	}
	return rec.toDomain(), nil
}

// ResetAllCounts sets every resource's count to zero, keeping the records.
func (s *Store) ResetAllCounts(ctx context.Context) (int64, error) {
	res, err := s.resources.UpdateMany(ctx, bson.M{},
		bson.M{"$set": bson.M{"count": int64(0), "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, wrapErr("reset counts", err)
	}
	return res.MatchedCount, nil
}

// DeleteAllResources removes every resource and returns how many were removed.
func (s *Store) DeleteAllResources(ctx context.Context) (int64, error) {
	res, err := s.resources.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("delete resources", err)
	}
	return res.DeletedCount, nil
}

// TopResources returns up to limit resources ordered by count descending.
func (s *Store) TopResources(ctx context.Context, limit int) ([]*domain.Resource, error) {
	if limit <= 0 {
		return []*domain.Resource{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return s.findResources(ctx, "top resources", opts)
}

// ListResources returns every resource ordered by ID.
func (s *Store) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	return s.findResources(ctx, "list resources", options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *Store) findResources(ctx context.Context, op string, opts *options.FindOptions) ([]*domain.Resource, error) {
	cur, err := s.resources.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer cur.Close(ctx)

	resources := []*domain.Resource{}
	for cur.Next(ctx) {
		var rec resourceRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, wrapErr(op, err)
		}
		resources = append(resources, rec.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return resources, nil
}
