// Package badgerdb is the embedded Badger backend and the default store.
//
// Single-record operations run as Badger read-write transactions. Badger
// detects conflicting concurrent transactions at commit time and the losing
// transaction is retried, so every read-modify-write is serialized per key.
// Bulk operations take the store-wide write lock and use a WriteBatch.
package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/oerhub/oerhub-server/internal/store"
)

// maxTxnRetries bounds the retries of a transaction that lost a commit race.
const maxTxnRetries = 128

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// mu is held shared by single-record transactions and exclusively by
	// bulk operations, which write outside of a conflict-checked transaction.
	mu sync.RWMutex
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Options configures Open.
type Options struct {
	// InMemory runs Badger without touching disk. Path is ignored.
	InMemory bool
}

// Open opens (or creates) a Badger database at path.
func Open(path string, logger *slog.Logger, o Options) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil            // Badger's own logger is noisy
	opts.SyncWrites = !o.InMemory
	opts.CompactL0OnClose = true // faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("badger database opened", "path", path, "in_memory", o.InMemory)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("closing badger database")
	}
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return store.Unavailable("ping", badger.ErrDBClosed)
	}
	return nil
}

// update runs fn in a read-write transaction, retrying when another
// transaction committed a conflicting write first. fn may run several times.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db.IsClosed() {
		return store.Unavailable(op, badger.ErrDBClosed)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return wrapErr(op, err)
		}
		if attempt >= maxTxnRetries {
			return store.Unavailable(op, fmt.Errorf("gave up after %d conflicting retries: %w", attempt, err))
		}
	}
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return store.Unavailable(op, badger.ErrDBClosed)
	}
	if err := s.db.View(fn); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// wrapErr passes store errors through and hides everything else behind Unavailable.
func wrapErr(op string, err error) error {
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	return store.Unavailable(op, err)
}

// getJSON decodes the value at key into dest.
// Returns store.ErrNotFound when the key is absent.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON encodes value and stores it at key.
func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// scanPrefix calls fn with the raw value of every key under prefix, in key order.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}
