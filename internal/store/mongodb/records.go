package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oerhub/oerhub-server/internal/domain"
)

type keywordRecord struct {
	Value     string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type resourceRecord struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Count       int64     `bson:"count"`
	Likes       int64     `bson:"likes"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (r *resourceRecord) toDomain() *domain.Resource {
	return &domain.Resource{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Count:       r.Count,
		Likes:       r.Likes,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type documentRecord struct {
	ID        string      `bson:"_id"`
	Body      primitive.M `bson:"body"`
	CreatedAt time.Time   `bson:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

func (r *documentRecord) toDomain(kind domain.DocumentKind) *domain.Document {
	body, _ := plain(r.Body).(map[string]any)
	if body == nil {
		body = map[string]any{}
	}
	return &domain.Document{
		ID:        r.ID,
		Kind:      kind,
		Body:      body,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// plain converts decoded BSON containers into plain maps and slices so
// bodies look the same as they do on every other backend.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plainSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = plain(v)
	}
	return out
}
