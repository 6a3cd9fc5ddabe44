package badgerdb

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
)

// UpsertResource creates the resource with initialCount or folds the save
// into the existing record. The bool reports whether this call created it.
func (s *Store) UpsertResource(ctx context.Context, in domain.ResourceInput, initialCount int64) (*domain.Resource, bool, error) {
	var (
		r       domain.Resource
		created bool
	)

	err := s.update(ctx, "upsert resource", func(txn *badger.Txn) error {
		key := writeKey(resourcePrefix, in.ID)
		now := time.Now().UTC()

		r = domain.Resource{}
		err := getJSON(txn, key, &r)
		switch {
		case err == nil:
			r.ApplySave(in, now)
			created = false
		case errors.Is(err, store.ErrNotFound):
			r = *domain.NewResource(in, initialCount, now)
			created = true
		default:
			return err
		}
		return setJSON(txn, key, &r)
	})
	if err != nil {
		return nil, false, err
	}
	return &r, created, nil
}

// GetResource retrieves a resource by ID.
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	var r domain.Resource
	err := s.view(ctx, "get resource", func(txn *badger.Txn) error {
		key := buildKey(resourcePrefix, id)
		defer releaseKey(key)
		return getJSON(txn, key, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DecrementResourceCount lowers the count by one, deleting the record when
// the count would reach zero. The bool reports whether the record was removed.
func (s *Store) DecrementResourceCount(ctx context.Context, id string) (*domain.Resource, bool, error) {
	var (
		r       domain.Resource
		removed bool
	)

	err := s.update(ctx, "decrement resource", func(txn *badger.Txn) error {
		key := writeKey(resourcePrefix, id)

		r = domain.Resource{}
		if err := getJSON(txn, key, &r); err != nil {
			return err
		}

		if r.ExhaustedAfterDecrement() {
			r.Count = 0
			removed = true
			return txn.Delete(key)
		}

		r.Count--
		r.UpdatedAt = time.Now().UTC()
		removed = false
		return setJSON(txn, key, &r)
	})
	if err != nil {
		return nil, false, err
	}
	return &r, removed, nil
}

// AdjustLikes adds delta to the like count, flooring at zero.
func (s *Store) AdjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error) {
	var r domain.Resource

	err := s.update(ctx, "adjust likes", func(txn *badger.Txn) error {
		key := writeKey(resourcePrefix, id)

		r = domain.Resource{}
		if err := getJSON(txn, key, &r); err != nil {
			return err
		}
		r.ApplyLikes(delta, time.Now().UTC())
		return setJSON(txn, key, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ResetAllCounts sets every resource's count to zero, keeping the records.
func (s *Store) ResetAllCounts(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resources, err := s.listResources()
	if err != nil {
		return 0, wrapErr("reset counts", err)
	}

	now := time.Now().UTC()
	bw := s.newBatchWriter(batchSize)
	for _, r := range resources {
		r.Count = 0
		r.UpdatedAt = now

		data, err := json.Marshal(r)
		if err != nil {
			bw.batch.Cancel()
			return 0, wrapErr("reset counts", fmt.Errorf("marshal resource: %w", err))
		}
		if err := bw.set(writeKey(resourcePrefix, r.ID), data); err != nil {
			bw.batch.Cancel()
			return 0, wrapErr("reset counts", err)
		}
	}
	if err := bw.finish(); err != nil {
		return 0, wrapErr("reset counts", err)
	}

	if s.logger != nil {
		s.logger.Info("resource counts reset", "count", bw.total)
	}
	return int64(bw.total), nil
}

// DeleteAllResources removes every resource and returns how many were removed.
func (s *Store) DeleteAllResources(ctx context.Context) (int64, error) {
	return s.deletePrefix(ctx, "delete resources", resourcePrefix)
}

// TopResources returns up to limit resources ordered by count descending.
// Ties are broken by ID so results are stable.
func (s *Store) TopResources(ctx context.Context, limit int) ([]*domain.Resource, error) {
	if limit <= 0 {
		return []*domain.Resource{}, nil
	}

	resources, err := s.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(resources, func(a, b *domain.Resource) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(resources) > limit {
		resources = resources[:limit]
	}
	return resources, nil
}

// ListResources returns every resource ordered by ID.
func (s *Store) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resources, err := s.listResources()
	if err != nil {
		return nil, wrapErr("list resources", err)
	}
	return resources, nil
}

func (s *Store) listResources() ([]*domain.Resource, error) {
	resources := []*domain.Resource{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(resourcePrefix), func(_, val []byte) error {
			var r domain.Resource
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("unmarshal resource: %w", err)
			}
			resources = append(resources, &r)
			return nil
		})
	})
	return resources, err
}
