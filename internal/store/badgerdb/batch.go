package badgerdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// batchWriter wraps a Badger WriteBatch and flushes every maxSize operations.
// Callers must hold s.mu exclusively: WriteBatch skips conflict detection.
type batchWriter struct {
	store   *Store
	batch   *badger.WriteBatch
	maxSize int
	count   int
	total   int
}

func (s *Store) newBatchWriter(maxSize int) *batchWriter {
	return &batchWriter{
		store:   s,
		batch:   s.db.NewWriteBatch(),
		maxSize: maxSize,
	}
}

func (b *batchWriter) set(key, value []byte) error {
	if err := b.batch.Set(key, value); err != nil {
		return fmt.Errorf("batch set: %w", err)
	}
	return b.added()
}

func (b *batchWriter) delete(key []byte) error {
	if err := b.batch.Delete(key); err != nil {
		return fmt.Errorf("batch delete: %w", err)
	}
	return b.added()
}

func (b *batchWriter) added() error {
	b.count++
	b.total++
	if b.count >= b.maxSize {
		return b.flush()
	}
	return nil
}

// flush commits all pending writes and starts a new batch.
func (b *batchWriter) flush() error {
	if b.count == 0 {
		return nil
	}
	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "batch flushed",
			slog.Int("count", b.count),
		)
	}

	b.count = 0
	b.batch = b.store.db.NewWriteBatch()
	return nil
}

// finish flushes the remaining writes. It must be called exactly once.
func (b *batchWriter) finish() error {
	if b.count == 0 {
		b.batch.Cancel()
		return nil
	}
	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	b.count = 0
	return nil
}

// batchSize is the number of writes per WriteBatch flush in bulk operations.
const batchSize = 1000

// deletePrefix removes every key under prefix and returns how many were removed.
func (s *Store) deletePrefix(ctx context.Context, op, prefix string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var keys [][]byte
	p := []byte(prefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, wrapErr(op, err)
	}

	bw := s.newBatchWriter(batchSize)
	for _, k := range keys {
		if err := bw.delete(k); err != nil {
			bw.batch.Cancel()
			return 0, wrapErr(op, err)
		}
	}
	if err := bw.finish(); err != nil {
		return 0, wrapErr(op, err)
	}

	return int64(bw.total), nil
}
