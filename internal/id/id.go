// Package id generates prefixed identifiers for server-created records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// Prefixes for generated ids.
const (
	PrefixScenario = "scn"
	PrefixPath     = "path"
	PrefixDocument = "doc"
)

// alphabet omits '-' and '_' so the separator after the prefix is unambiguous.
const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	size     = 21
)

// Generate creates a prefixed id: prefix-nanoid, e.g. "scn-4f8G2kQ9xLmN0pRsT1uVw".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// ForDocument generates an id for a new document of the given kind.
func ForDocument(kind domain.DocumentKind) (string, error) {
	return Generate(PrefixFor(kind))
}

// PrefixFor returns the id prefix used for kind.
func PrefixFor(kind domain.DocumentKind) string {
	switch kind {
	case domain.KindLearningScenario:
		return PrefixScenario
	case domain.KindLearningPath:
		return PrefixPath
	default:
		return PrefixDocument
	}
}
