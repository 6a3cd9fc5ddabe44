package badgerdb

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// UpsertKeyword inserts value if absent. The bool reports whether this call created it.
func (s *Store) UpsertKeyword(ctx context.Context, value string) (*domain.Keyword, bool, error) {
	var (
		kw      domain.Keyword
		created bool
	)

	err := s.update(ctx, "upsert keyword", func(txn *badger.Txn) error {
		key := writeKey(keywordPrefix, value)

		err := getJSON(txn, key, &kw)
		if err == nil {
			created = false
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		kw = domain.Keyword{Value: value, CreatedAt: time.Now().UTC()}
		created = true
		return setJSON(txn, key, &kw)
	})
	if err != nil {
		return nil, false, err
	}
	return &kw, created, nil
}

// ListKeywords returns every keyword value in lexical order.
func (s *Store) ListKeywords(ctx context.Context) ([]string, error) {
	values := []string{}
	prefix := []byte(keywordPrefix)

	err := s.view(ctx, "list keywords", func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			values = append(values, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ClearKeywords removes every keyword and returns how many were removed.
func (s *Store) ClearKeywords(ctx context.Context) (int64, error) {
	return s.deletePrefix(ctx, "clear keywords", keywordPrefix)
}
