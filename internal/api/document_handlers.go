package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oerhub/oerhub-server/internal/domain"
)

// documentRoute names the routes of one document kind.
type documentRoute struct {
	kind   domain.DocumentKind
	name   string // LearningScenario
	plural string // LearningScenarios
	label  string // learning scenario
	tag    string
}

var documentRoutes = []documentRoute{
	{
		kind:   domain.KindLearningScenario,
		name:   "LearningScenario",
		plural: "LearningScenarios",
		label:  "learning scenario",
		tag:    "Learning scenarios",
	},
	{
		kind:   domain.KindLearningPath,
		name:   "LearningPath",
		plural: "LearningPaths",
		label:  "learning path",
		tag:    "Learning paths",
	},
}

func (s *Server) registerDocumentRoutes() {
	for _, rt := range documentRoutes {
		s.registerDocumentKind(rt)
	}
}

func (s *Server) registerDocumentKind(rt documentRoute) {
	huma.Register(s.api, huma.Operation{
		OperationID: "save" + rt.name,
		Method:      http.MethodPost,
		Path:        "/api/save" + rt.name,
		Summary:     "Save " + rt.label,
		Description: "Stores the body as submitted under its \"id\" field, replacing any earlier version. A body without an id gets a generated one.",
		Tags:        []string{rt.tag},
	}, func(ctx context.Context, input *SaveDocumentInput) (*SaveDocumentOutput, error) {
		doc, err := s.services.Document.SaveDocument(ctx, rt.kind, input.Body)
		if err != nil {
			return nil, err
		}
		return &SaveDocumentOutput{
			Body: SaveDocumentResponse{
				Message:  capitalize(rt.label) + " saved successfully.",
				ID:       doc.ID,
				Document: doc.Body,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get" + rt.plural,
		Method:      http.MethodGet,
		Path:        "/api/get" + rt.plural,
		Summary:     "List " + rt.label + "s",
		Description: "Returns every stored " + rt.label,
		Tags:        []string{rt.tag},
	}, func(ctx context.Context, _ *struct{}) (*DocumentsOutput, error) {
		docs, err := s.services.Document.ListDocuments(ctx, rt.kind)
		if err != nil {
			return nil, err
		}

		bodies := make([]map[string]any, len(docs))
		for i, doc := range docs {
			bodies[i] = doc.Body
		}
		return &DocumentsOutput{Body: DocumentsResponse{Documents: bodies}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get" + rt.name,
		Method:      http.MethodGet,
		Path:        "/api/get" + rt.name + "/{id}",
		Summary:     "Get " + rt.label,
		Description: "Returns a single " + rt.label + " as it was saved",
		Tags:        []string{rt.tag},
	}, func(ctx context.Context, input *DocumentIDInput) (*DocumentOutput, error) {
		doc, err := s.services.Document.GetDocument(ctx, rt.kind, input.ID)
		if err != nil {
			return nil, err
		}
		return &DocumentOutput{Body: doc.Body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete" + rt.name,
		Method:      http.MethodDelete,
		Path:        "/api/delete" + rt.name + "/{id}",
		Summary:     "Delete " + rt.label,
		Description: "Removes a " + rt.label,
		Tags:        []string{rt.tag},
	}, func(ctx context.Context, input *DocumentIDInput) (*MessageOutput, error) {
		if err := s.services.Document.DeleteDocument(ctx, rt.kind, input.ID); err != nil {
			return nil, err
		}
		return message(capitalize(rt.label) + " deleted successfully."), nil
	})
}

// === DTOs ===

// DocumentIDInput identifies a document by path.
type DocumentIDInput struct {
	ID string `path:"id" doc:"Document id"`
}

// SaveDocumentInput carries a free-form document body.
type SaveDocumentInput struct {
	Body map[string]any
}

// SaveDocumentResponse confirms a save.
type SaveDocumentResponse struct {
	Message  string         `json:"message"`
	ID       string         `json:"id" doc:"Id the document was stored under"`
	Document map[string]any `json:"document"`
}

// SaveDocumentOutput wraps the save response for Huma.
type SaveDocumentOutput struct {
	Body SaveDocumentResponse
}

// DocumentOutput returns a stored body.
type DocumentOutput struct {
	Body map[string]any
}

// DocumentsResponse lists stored bodies.
type DocumentsResponse struct {
	Documents []map[string]any `json:"documents"`
}

// DocumentsOutput wraps a document list for Huma.
type DocumentsOutput struct {
	Body DocumentsResponse
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
