// Package di provides dependency injection configuration for the OER hub server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/di/providers"
	"github.com/oerhub/oerhub-server/internal/logger"
	"github.com/oerhub/oerhub-server/internal/service"
	"github.com/oerhub/oerhub-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	register(injector)
	do.Provide(injector, providers.ProvideConfig)
	return injector
}

// NewContainerWithConfig is NewContainer for an already loaded configuration,
// as used by the command line tools.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	register(injector)
	do.ProvideValue(injector, cfg)
	return injector
}

func register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideKeywordService)
	do.Provide(injector, providers.ProvideResourceService)
	do.Provide(injector, providers.ProvideDocumentService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)

	_ = do.MustInvoke[*service.KeywordService](injector)
	_ = do.MustInvoke[*service.ResourceService](injector)
	_ = do.MustInvoke[*service.DocumentService](injector)

	providers.TriggerSearchReindex(injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
