package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/service"
)

func (s *Server) registerResourceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "saveOER",
		Method:      http.MethodPost,
		Path:        "/api/saveOER",
		Summary:     "Save OER",
		Description: "Creates the OER on its first save. Every later save of the same id increments its count and refreshes title and description.",
		Tags:        []string{"OERs"},
	}, s.handleSaveOER)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAllOERs",
		Method:      http.MethodGet,
		Path:        "/api/getAllOERs",
		Summary:     "List OERs",
		Description: "Returns every OER ordered by id",
		Tags:        []string{"OERs"},
	}, s.handleListOERs)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOER",
		Method:      http.MethodGet,
		Path:        "/api/getOER/{id}",
		Summary:     "Get OER",
		Description: "Returns a single OER",
		Tags:        []string{"OERs"},
	}, s.handleGetOER)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCount",
		Method:      http.MethodPut,
		Path:        "/api/updateCount/{id}",
		Summary:     "Decrement OER count",
		Description: "Lowers the count by one. The OER is deleted when its count would reach zero.",
		Tags:        []string{"OERs"},
	}, s.handleDecrementCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCount",
		Method:      http.MethodGet,
		Path:        "/api/getCount/{id}",
		Summary:     "Get OER count",
		Description: "Returns how many times the OER has been saved",
		Tags:        []string{"OERs"},
	}, s.handleGetCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetAllOERCounts",
		Method:      http.MethodPut,
		Path:        "/api/resetAllOERCounts",
		Summary:     "Reset all counts",
		Description: "Sets every OER's count to zero. No OER is deleted.",
		Tags:        []string{"OERs"},
	}, s.handleResetAllCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeOER",
		Method:      http.MethodPost,
		Path:        "/api/likeOER/{id}",
		Summary:     "Like OER",
		Description: "Adds one like",
		Tags:        []string{"OERs"},
	}, s.handleLikeOER)

	huma.Register(s.api, huma.Operation{
		OperationID: "reduceLike",
		Method:      http.MethodPut,
		Path:        "/api/reduceLike/{id}",
		Summary:     "Unlike OER",
		Description: "Removes one like. Likes never drop below zero.",
		Tags:        []string{"OERs"},
	}, s.handleReduceLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLikes",
		Method:      http.MethodGet,
		Path:        "/api/getLikes/{id}",
		Summary:     "Get OER likes",
		Description: "Returns the OER's like count",
		Tags:        []string{"OERs"},
	}, s.handleGetLikes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMaxCountOERs",
		Method:      http.MethodGet,
		Path:        "/api/getMaxCountOERs",
		Summary:     "Most used OERs",
		Description: "Returns the OERs with the highest counts, highest first",
		Tags:        []string{"OERs"},
	}, s.handleTopOERs)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAllOERs",
		Method:      http.MethodDelete,
		Path:        "/api/deleteAllOERs",
		Summary:     "Delete all OERs",
		Description: "Removes every OER",
		Tags:        []string{"OERs"},
	}, s.handleDeleteAllOERs)
}

// === DTOs ===

// OERIDInput identifies an OER by path.
type OERIDInput struct {
	ID string `path:"id" doc:"OER id"`
}

// SaveOERRequest is the body of an OER save.
type SaveOERRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	ID          string   `json:"id" doc:"Caller-chosen OER id" example:"oer-42"`
	Title       string   `json:"title" doc:"Title" example:"Introduction to Photosynthesis"`
	Description string   `json:"description,omitempty" required:"false" doc:"Description; omitted keeps the stored one"`
}

// SaveOERInput wraps the save request for Huma.
type SaveOERInput struct {
	Body SaveOERRequest
}

// SaveOERResponse confirms a save.
type SaveOERResponse struct {
	Message string           `json:"message"`
	Created bool             `json:"created" doc:"True when this save created the OER"`
	OER     *domain.Resource `json:"oer"`
}

// SaveOEROutput wraps the save response for Huma.
type SaveOEROutput struct {
	Body SaveOERResponse
}

// OEROutput wraps a single OER for Huma.
type OEROutput struct {
	Body *domain.Resource
}

// OERsResponse lists OERs.
type OERsResponse struct {
	OERs []*domain.Resource `json:"oers"`
}

// OERsOutput wraps an OER list for Huma.
type OERsOutput struct {
	Body OERsResponse
}

// CountOutput reports an OER's count.
type CountOutput struct {
	Body struct {
		Count int64 `json:"count"`
	}
}

// LikesOutput reports an OER's likes.
type LikesOutput struct {
	Body struct {
		Likes int64 `json:"likes"`
	}
}

// TopOERsInput bounds the ranking.
type TopOERsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" doc:"Number of OERs to return; 0 uses the server default"`
}

// TopOERsResponse lists OERs by descending count.
type TopOERsResponse struct {
	MaxCountOERs []*domain.Resource `json:"maxCountOERs"`
}

// TopOERsOutput wraps the ranking for Huma.
type TopOERsOutput struct {
	Body TopOERsResponse
}

// === Handlers ===

func (s *Server) handleSaveOER(ctx context.Context, input *SaveOERInput) (*SaveOEROutput, error) {
	r, created, err := s.services.Resource.SaveResource(ctx, service.SaveResourceRequest{
		ID:          input.Body.ID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}

	return &SaveOEROutput{
		Body: SaveOERResponse{
			Message: "OER saved successfully.",
			Created: created,
			OER:     r,
		},
	}, nil
}

func (s *Server) handleListOERs(ctx context.Context, _ *struct{}) (*OERsOutput, error) {
	list, err := s.services.Resource.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	return &OERsOutput{Body: OERsResponse{OERs: list}}, nil
}

func (s *Server) handleGetOER(ctx context.Context, input *OERIDInput) (*OEROutput, error) {
	r, err := s.services.Resource.GetResource(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &OEROutput{Body: r}, nil
}

func (s *Server) handleDecrementCount(ctx context.Context, input *OERIDInput) (*MessageOutput, error) {
	_, removed, err := s.services.Resource.DecrementCount(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		return message("OER count reached zero and the OER was deleted."), nil
	}
	return message("OER count updated successfully."), nil
}

func (s *Server) handleGetCount(ctx context.Context, input *OERIDInput) (*CountOutput, error) {
	count, err := s.services.Resource.GetCount(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := &CountOutput{}
	out.Body.Count = count
	return out, nil
}

func (s *Server) handleResetAllCounts(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := s.services.Resource.ResetAllCounts(ctx); err != nil {
		return nil, err
	}
	return message("All OER counts reset successfully."), nil
}

func (s *Server) handleLikeOER(ctx context.Context, input *OERIDInput) (*MessageOutput, error) {
	r, err := s.services.Resource.Like(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return message("No OER with that id; nothing changed."), nil
	}
	return message("OER liked successfully."), nil
}

func (s *Server) handleReduceLike(ctx context.Context, input *OERIDInput) (*MessageOutput, error) {
	r, err := s.services.Resource.Unlike(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return message("No OER with that id; nothing changed."), nil
	}
	return message("OER like removed successfully."), nil
}

func (s *Server) handleGetLikes(ctx context.Context, input *OERIDInput) (*LikesOutput, error) {
	likes, err := s.services.Resource.GetLikes(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := &LikesOutput{}
	out.Body.Likes = likes
	return out, nil
}

func (s *Server) handleTopOERs(ctx context.Context, input *TopOERsInput) (*TopOERsOutput, error) {
	top, err := s.services.Resource.TopResources(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &TopOERsOutput{Body: TopOERsResponse{MaxCountOERs: top}}, nil
}

func (s *Server) handleDeleteAllOERs(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := s.services.Resource.DeleteAllResources(ctx); err != nil {
		return nil, err
	}
	return message("All OERs deleted successfully."), nil
}
