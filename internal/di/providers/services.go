package providers

import (
	"github.com/samber/do/v2"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/logger"
	"github.com/oerhub/oerhub-server/internal/service"
	"github.com/oerhub/oerhub-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideKeywordService provides the keyword service.
func ProvideKeywordService(i do.Injector) (*service.KeywordService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewKeywordService(storeHandle.Store, cfg.Policy, log.Logger), nil
}

// ProvideResourceService provides the OER service.
func ProvideResourceService(i do.Injector) (*service.ResourceService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewResourceService(storeHandle.Store, searchService, cfg.Policy, validator, log.Logger), nil
}

// ProvideDocumentService provides the learning scenario and path service.
func ProvideDocumentService(i do.Injector) (*service.DocumentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDocumentService(storeHandle.Store, searchService, log.Logger), nil
}
