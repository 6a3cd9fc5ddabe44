package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/normalize"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/validation"
)

const oerNotFound = "OER not found"

// ResourceService manages OERs: usage counts, likes and ranking.
type ResourceService struct {
	store     store.Store
	search    *SearchService
	policy    config.PolicyConfig
	validator *validation.Validator
	logger    *slog.Logger
}

// NewResourceService creates a new resource service. search may be nil.
func NewResourceService(
	store store.Store,
	search *SearchService,
	policy config.PolicyConfig,
	validator *validation.Validator,
	logger *slog.Logger,
) *ResourceService {
	return &ResourceService{
		store:     store,
		search:    search,
		policy:    policy,
		validator: validator,
		logger:    logger,
	}
}

// SaveResourceRequest is the payload of a save.
type SaveResourceRequest struct {
	ID          string `json:"id" validate:"recordid"`
	Title       string `json:"title" validate:"notblank,max=1024"`
	Description string `json:"description" validate:"max=16384"`
}

// SaveResource creates the OER on its first save and counts every later
// save of the same id. created reports which of the two happened.
func (s *ResourceService) SaveResource(ctx context.Context, req SaveResourceRequest) (*domain.Resource, bool, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Title = normalize.Text(req.Title)
	req.Description = normalize.Text(req.Description)

	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}

	r, created, err := s.store.UpsertResource(ctx, domain.ResourceInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
	}, s.policy.InitialCount)
	if err != nil {
		return nil, false, fromStore(ctx, s.logger, "upsert oer", err, oerNotFound)
	}

	s.search.SyncResource(ctx, r.ID)
	s.logger.DebugContext(ctx, "oer saved", "id", r.ID, "count", r.Count, "created", created)
	return r, created, nil
}

// DecrementCount lowers an OER's count by one, deleting the OER when the
// count would reach zero. removed reports the deletion.
func (s *ResourceService) DecrementCount(ctx context.Context, id string) (*domain.Resource, bool, error) {
	r, removed, err := s.store.DecrementResourceCount(ctx, id)
	if err != nil {
		return nil, false, fromStore(ctx, s.logger, "decrement oer count", err, oerNotFound)
	}

	s.search.SyncResource(ctx, id)
	if removed {
		s.logger.InfoContext(ctx, "oer removed at zero count", "id", id)
	}
	return r, removed, nil
}

// GetCount returns an OER's count. An unknown id answers NotFound, or zero
// under the "zero" missing-count policy.
func (s *ResourceService) GetCount(ctx context.Context, id string) (int64, error) {
	r, err := s.store.GetResource(ctx, id)
	if errors.Is(err, store.ErrNotFound) && s.policy.MissingCount == config.PolicyZero {
		return 0, nil
	}
	if err != nil {
		return 0, fromStore(ctx, s.logger, "get oer", err, oerNotFound)
	}
	return r.Count, nil
}

// GetLikes returns an OER's like count.
func (s *ResourceService) GetLikes(ctx context.Context, id string) (int64, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return 0, fromStore(ctx, s.logger, "get oer", err, oerNotFound)
	}
	return r.Likes, nil
}

// GetResource returns a single OER.
func (s *ResourceService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "get oer", err, oerNotFound)
	}
	return r, nil
}

// ListResources returns every OER ordered by id.
func (s *ResourceService) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	list, err := s.store.ListResources(ctx)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "list oers", err, oerNotFound)
	}
	if list == nil {
		list = []*domain.Resource{}
	}
	return list, nil
}

// Like adds one like. See adjustLikes for missing ids.
func (s *ResourceService) Like(ctx context.Context, id string) (*domain.Resource, error) {
	return s.adjustLikes(ctx, id, 1)
}

// Unlike removes one like. Likes never drop below zero; unliking an OER
// with no likes succeeds and changes nothing.
func (s *ResourceService) Unlike(ctx context.Context, id string) (*domain.Resource, error) {
	return s.adjustLikes(ctx, id, -1)
}

// adjustLikes applies delta. For an unknown id it answers NotFound, or
// returns (nil, nil) under the "noop" missing-like policy.
func (s *ResourceService) adjustLikes(ctx context.Context, id string, delta int64) (*domain.Resource, error) {
	r, err := s.store.AdjustLikes(ctx, id, delta)
	if errors.Is(err, store.ErrNotFound) && s.policy.MissingLike == config.PolicyNoop {
		s.logger.DebugContext(ctx, "like on unknown oer ignored", "id", id, "delta", delta)
		return nil, nil
	}
	if err != nil {
		return nil, fromStore(ctx, s.logger, "adjust oer likes", err, oerNotFound)
	}

	s.search.SyncResource(ctx, id)
	return r, nil
}

// ResetAllCounts sets every OER's count to zero without deleting any.
func (s *ResourceService) ResetAllCounts(ctx context.Context) (int64, error) {
	n, err := s.store.ResetAllCounts(ctx)
	if err != nil {
		return 0, fromStore(ctx, s.logger, "reset oer counts", err, oerNotFound)
	}

	if err := s.search.ReindexResources(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh oer index after reset", "error", err)
	}
	s.logger.InfoContext(ctx, "oer counts reset", "count", n)
	return n, nil
}

// DeleteAllResources removes every OER.
func (s *ResourceService) DeleteAllResources(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAllResources(ctx)
	if err != nil {
		return 0, fromStore(ctx, s.logger, "delete oers", err, oerNotFound)
	}

	s.search.RemoveAllResources(ctx)
	s.logger.InfoContext(ctx, "oers deleted", "count", n)
	return n, nil
}

// TopResources returns up to limit OERs by descending count. A zero limit
// uses the configured default.
func (s *ResourceService) TopResources(ctx context.Context, limit int) ([]*domain.Resource, error) {
	if limit == 0 {
		limit = s.policy.TopLimit
	}
	if err := s.validator.Var("limit", limit, "gte=1,lte=100"); err != nil {
		return nil, err
	}

	top, err := s.store.TopResources(ctx, limit)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "list top oers", err, oerNotFound)
	}
	if top == nil {
		top = []*domain.Resource{}
	}
	return top, nil
}
