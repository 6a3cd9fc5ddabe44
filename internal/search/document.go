// Package search provides full-text search over OERs and learning documents
// using Bleve.
package search

import (
	"strings"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// DocType discriminates entries in the shared index.
type DocType string

// Document types for the search index.
const (
	DocTypeOER      DocType = "oer"
	DocTypeScenario DocType = "learning_scenario"
	DocTypePath     DocType = "learning_path"
)

// SearchDocument is one entry in the Bleve index.
type SearchDocument struct {
	ID          string  `json:"id"`
	Type        DocType `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`

	// OER counters, used for sorting. Zero for documents.
	Count int64 `json:"count"`
	Likes int64 `json:"likes"`

	UpdatedAt int64 `json:"updated_at"` // unix millis
}

// indexID is the key under which the entry is stored. Resource and
// document ids come from different namespaces, so the type is folded in.
func (d *SearchDocument) indexID() string {
	return indexKey(d.Type, d.ID)
}

func indexKey(t DocType, id string) string {
	return string(t) + ":" + id
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"title":      d.Title,
		"count":      d.Count,
		"likes":      d.Likes,
		"updated_at": d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	return m
}

// ResourceToSearchDocument converts an OER to a search entry.
func ResourceToSearchDocument(r *domain.Resource) *SearchDocument {
	return &SearchDocument{
		ID:          r.ID,
		Type:        DocTypeOER,
		Title:       r.Title,
		Description: r.Description,
		Count:       r.Count,
		Likes:       r.Likes,
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}

// DocumentToSearchDocument converts a learning scenario or path to a search
// entry. Bodies are free-form, so the title is taken from the first of
// "title" or "name" that holds a string. Returns nil when neither does.
func DocumentToSearchDocument(doc *domain.Document) *SearchDocument {
	title := firstString(doc.Body, "title", "name")
	if title == "" {
		return nil
	}

	t := DocTypeScenario
	if doc.Kind == domain.KindLearningPath {
		t = DocTypePath
	}

	return &SearchDocument{
		ID:          doc.ID,
		Type:        t,
		Title:       title,
		Description: firstString(doc.Body, "description", "summary"),
		UpdatedAt:   doc.UpdatedAt.UnixMilli(),
	}
}

// DocTypeFor maps a document kind to its index type.
func DocTypeFor(kind domain.DocumentKind) DocType {
	if kind == domain.KindLearningPath {
		return DocTypePath
	}
	return DocTypeScenario
}

func firstString(body map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := body[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
