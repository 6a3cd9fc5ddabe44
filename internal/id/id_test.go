package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/domain"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixScenario, PrefixPath, PrefixDocument, "custom"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			rest, ok := strings.CutPrefix(id, prefix+"-")
			require.True(t, ok, id)
			assert.Len(t, rest, size)

			for _, char := range rest {
				assert.True(t, strings.ContainsRune(alphabet, char), "unexpected character %q in %s", char, id)
			}
		})
	}
}

func TestForDocument(t *testing.T) {
	scn, err := ForDocument(domain.KindLearningScenario)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(scn, "scn-"), scn)

	path, err := ForDocument(domain.KindLearningPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "path-"), path)

	assert.Equal(t, PrefixDocument, PrefixFor(domain.DocumentKind("other")))
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
