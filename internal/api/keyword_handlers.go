package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerKeywordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "saveKeyword",
		Method:      http.MethodPost,
		Path:        "/api/saveKeyword",
		Summary:     "Save keyword",
		Description: "Stores a keyword. Keywords are trimmed and lower-cased, so saving the same keyword twice keeps one record.",
		Tags:        []string{"Keywords"},
	}, s.handleSaveKeyword)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAllKeywords",
		Method:      http.MethodGet,
		Path:        "/api/getAllKeywords",
		Summary:     "List keywords",
		Description: "Returns every stored keyword",
		Tags:        []string{"Keywords"},
	}, s.handleListKeywords)

	huma.Register(s.api, huma.Operation{
		OperationID: "getKeywords",
		Method:      http.MethodGet,
		Path:        "/api/getKeywords",
		Summary:     "List keywords (alias)",
		Description: "Same as /api/getAllKeywords",
		Tags:        []string{"Keywords"},
		Deprecated:  true,
	}, s.handleListKeywords)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAllKeywords",
		Method:      http.MethodPost,
		Path:        "/api/deleteAllKeywords",
		Summary:     "Delete all keywords",
		Description: "Removes every stored keyword",
		Tags:        []string{"Keywords"},
	}, s.handleDeleteAllKeywords)
}

// SaveKeywordRequest is the body of a keyword save.
type SaveKeywordRequest struct {
	_       struct{} `json:"-" additionalProperties:"true"`
	Keyword string   `json:"keyword" required:"false" doc:"Keyword to store" example:"Photosynthesis"`
}

// SaveKeywordInput wraps the save request for Huma.
type SaveKeywordInput struct {
	Body SaveKeywordRequest
}

// SaveKeywordResponse confirms a save and echoes the normalized keyword.
type SaveKeywordResponse struct {
	Message string `json:"message"`
	Keyword string `json:"keyword" doc:"Keyword as stored"`
}

// SaveKeywordOutput wraps the save response for Huma.
type SaveKeywordOutput struct {
	Body SaveKeywordResponse
}

// KeywordsResponse lists keyword values.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// KeywordsOutput wraps the keyword list for Huma.
type KeywordsOutput struct {
	Body KeywordsResponse
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// MessageOutput wraps a confirmation for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(text string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: text}}
}

func (s *Server) handleSaveKeyword(ctx context.Context, input *SaveKeywordInput) (*SaveKeywordOutput, error) {
	kw, _, err := s.services.Keyword.SaveKeyword(ctx, input.Body.Keyword)
	if err != nil {
		return nil, err
	}

	return &SaveKeywordOutput{
		Body: SaveKeywordResponse{
			Message: "Keyword saved successfully.",
			Keyword: kw.Value,
		},
	}, nil
}

func (s *Server) handleListKeywords(ctx context.Context, _ *struct{}) (*KeywordsOutput, error) {
	values, err := s.services.Keyword.ListKeywords(ctx)
	if err != nil {
		return nil, err
	}
	return &KeywordsOutput{Body: KeywordsResponse{Keywords: values}}, nil
}

func (s *Server) handleDeleteAllKeywords(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := s.services.Keyword.DeleteAllKeywords(ctx); err != nil {
		return nil, err
	}
	return message("All keywords deleted successfully."), nil
}
