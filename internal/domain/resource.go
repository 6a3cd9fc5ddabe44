package domain

import "time"

// Resource is an open educational resource (OER) tracked by usage count and likes.
//
// Count is incremented on every save of the same ID and the record is removed
// when a decrement takes it to zero. Likes is adjusted independently and never
// drops below zero.
type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Count       int64     `json:"count"`
	Likes       int64     `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResourceInput is the payload of a resource upsert.
// An empty Description leaves the stored description untouched.
type ResourceInput struct {
	ID          string
	Title       string
	Description string
}

// NewResource builds the record inserted on the first save of an ID.
func NewResource(in ResourceInput, initialCount int64, now time.Time) *Resource {
	return &Resource{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Count:       initialCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplySave folds a repeated save into an existing record.
// Callers must hold whatever exclusion their backend needs for the ID.
func (r *Resource) ApplySave(in ResourceInput, now time.Time) {
	r.Count++
	r.Title = in.Title
	if in.Description != "" {
		r.Description = in.Description
	}
	r.UpdatedAt = now
}

// ApplyLikes adds delta to Likes, flooring the result at zero.
func (r *Resource) ApplyLikes(delta int64, now time.Time) {
	r.Likes += delta
	if r.Likes < 0 {
		r.Likes = 0
	}
	r.UpdatedAt = now
}

// ExhaustedAfterDecrement reports whether one more decrement takes the record to zero.
// A record already at zero (after a bulk reset) is exhausted as well.
func (r *Resource) ExhaustedAfterDecrement() bool {
	return r.Count <= 1
}
