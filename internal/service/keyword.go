package service

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/domain"
	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/normalize"
	"github.com/oerhub/oerhub-server/internal/store"
)

// maxKeywordLength bounds a normalized keyword, in characters.
const maxKeywordLength = 256

// KeywordService manages the deduplicated keyword collection.
type KeywordService struct {
	store  store.Store
	policy config.PolicyConfig
	logger *slog.Logger
}

// NewKeywordService creates a new keyword service.
func NewKeywordService(store store.Store, policy config.PolicyConfig, logger *slog.Logger) *KeywordService {
	return &KeywordService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// SaveKeyword normalizes raw and stores it once.
//
// Saving a value that already exists succeeds with created=false, unless
// the duplicate policy is "conflict", in which case it is rejected.
func (s *KeywordService) SaveKeyword(ctx context.Context, raw string) (*domain.Keyword, bool, error) {
	value := normalize.Keyword(raw)
	if value == "" {
		return nil, false, domainerrors.ValidationWithDetails("keyword is required",
			map[string]string{"keyword": "is required"})
	}
	if utf8.RuneCountInString(value) > maxKeywordLength {
		return nil, false, domainerrors.Validationf("keyword must not exceed %d characters", maxKeywordLength)
	}

	kw, created, err := s.store.UpsertKeyword(ctx, value)
	if err != nil {
		return nil, false, fromStore(ctx, s.logger, "upsert keyword", err, "keyword not found")
	}

	if !created && s.policy.DuplicateKeyword == config.PolicyConflict {
		return nil, false, domainerrors.Conflictf("keyword %q already exists", value)
	}

	if created {
		s.logger.DebugContext(ctx, "keyword created", "keyword", value)
	}
	return kw, created, nil
}

// ListKeywords returns every stored keyword value.
func (s *KeywordService) ListKeywords(ctx context.Context) ([]string, error) {
	values, err := s.store.ListKeywords(ctx)
	if err != nil {
		return nil, fromStore(ctx, s.logger, "list keywords", err, "keywords not found")
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// DeleteAllKeywords removes every keyword and reports how many went.
func (s *KeywordService) DeleteAllKeywords(ctx context.Context) (int64, error) {
	n, err := s.store.ClearKeywords(ctx)
	if err != nil {
		return 0, fromStore(ctx, s.logger, "clear keywords", err, "keywords not found")
	}
	s.logger.InfoContext(ctx, "keywords deleted", "count", n)
	return n, nil
}
