// Package domain contains the core records stored by the OER hub.
package domain

import "time"

// Keyword is a deduplicated, case-normalized tag.
// Value is the natural key: no two keywords share the same normalized value.
type Keyword struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
