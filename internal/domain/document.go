package domain

import "time"

// DocumentKind identifies a collection of free-form documents.
type DocumentKind string

// Document kinds.
const (
	KindLearningScenario DocumentKind = "learningScenario"
	KindLearningPath     DocumentKind = "learningPath"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindLearningScenario, KindLearningPath:
		return true
	default:
		return false
	}
}

// Collection returns the storage collection name for the kind.
func (k DocumentKind) Collection() string {
	switch k {
	case KindLearningScenario:
		return "learningScenarios"
	case KindLearningPath:
		return "learningPaths"
	default:
		return string(k)
	}
}

// Document is a learning scenario or learning path.
// Body is stored as submitted: nested nodes, edges and lesson plans are not validated.
type Document struct {
	ID        string         `json:"id"`
	Kind      DocumentKind   `json:"kind"`
	Body      map[string]any `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
