package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oerhub/oerhub-server/internal/search"
	"github.com/oerhub/oerhub-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchOERs",
		Method:      http.MethodGet,
		Path:        "/api/searchOERs",
		Summary:     "Search OERs",
		Description: "Full-text search over OER titles and descriptions with stemming, typo tolerance and prefix matching. An empty query lists OERs in the requested order.",
		Tags:        []string{"Search"},
	}, s.handleSearchOERs)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchAll",
		Method:      http.MethodGet,
		Path:        "/api/search",
		Summary:     "Search everything",
		Description: "Searches OERs, learning scenarios and learning paths",
		Tags:        []string{"Search"},
	}, s.handleSearchAll)
}

// SearchInput contains search query parameters.
type SearchInput struct {
	Q      string `query:"q" doc:"Search query"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Sort   string `query:"sort" default:"relevance" enum:"relevance,count,likes,recent" doc:"Result order"`
}

// SearchAllInput adds a type filter to SearchInput.
type SearchAllInput struct {
	Q      string   `query:"q" doc:"Search query"`
	Types  []string `query:"types" enum:"oer,learning_scenario,learning_path" doc:"Restrict results to these types"`
	Limit  int      `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset int      `query:"offset" minimum:"0" doc:"Pagination offset"`
	Sort   string   `query:"sort" default:"relevance" enum:"relevance,count,likes,recent" doc:"Result order"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearchOERs(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	return s.runSearch(ctx, input, []search.DocType{search.DocTypeOER})
}

func (s *Server) handleSearchAll(ctx context.Context, input *SearchAllInput) (*SearchOutput, error) {
	types := make([]search.DocType, len(input.Types))
	for i, t := range input.Types {
		types[i] = search.DocType(t)
	}
	return s.runSearch(ctx, &SearchInput{
		Q:      input.Q,
		Limit:  input.Limit,
		Offset: input.Offset,
		Sort:   input.Sort,
	}, types)
}

func (s *Server) runSearch(ctx context.Context, input *SearchInput, types []search.DocType) (*SearchOutput, error) {
	result, err := s.services.Search.Search(ctx, service.SearchRequest{
		Query:  input.Q,
		Types:  types,
		Limit:  input.Limit,
		Offset: input.Offset,
		SortBy: input.Sort,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
