package badgerdb

import (
	"sync"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// Key prefixes. Each record type owns one prefix so bulk operations can
// iterate or drop a whole collection.
const (
	keywordPrefix  = "kw:"
	resourcePrefix = "oer:"
	documentPrefix = "doc:"
)

// keyPool provides reusable byte slices for building keys on the hot path.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

// buildKey joins the parts into a key using a pooled buffer.
// Callers MUST call releaseKey when done with the key. Pooled keys are for
// lookups only: a key passed to txn.Set or txn.Delete is retained until
// commit, so writes use writeKey.
//
//	key := buildKey(resourcePrefix, id)
//	defer releaseKey(key)
func buildKey(parts ...string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

// releaseKey returns a key buffer to the pool. The key must not be used afterwards.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

// writeKey returns a freshly allocated key for writes.
func writeKey(parts ...string) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

// documentKindPrefix is the prefix shared by all documents of one kind.
func documentKindPrefix(kind domain.DocumentKind) string {
	return documentPrefix + string(kind) + ":"
}
