// Package mongodb is the MongoDB backend.
//
// Every counter change is a single server-side atomic operation on one
// document. Records are keyed by _id so the primary index enforces
// uniqueness without a separate index.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oerhub/oerhub-server/internal/store"
)

// Collection names.
const (
	keywordsCollection  = "keywords"
	resourcesCollection = "oers"
)

// connectTimeout bounds the initial connection and index setup.
const connectTimeout = 10 * time.Second

// Store provides MongoDB-backed persistence.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	keywords  *mongo.Collection
	resources *mongo.Collection
	logger    *slog.Logger
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures indexes exist.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		db:        db,
		keywords:  db.Collection(keywordsCollection),
		resources: db.Collection(resourcesCollection),
		logger:    logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if logger != nil {
		logger.Info("mongo database connected", "database", database)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.resources.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("count_desc"),
	})
	if err != nil {
		return fmt.Errorf("create resource count index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return store.Unavailable("ping", err)
	}
	return nil
}

// wrapErr maps mongo.ErrNoDocuments to store.ErrNotFound, passes store
// errors through, and hides everything else behind Unavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	return store.Unavailable(op, err)
}
