package api

import (
	"github.com/oerhub/oerhub-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Keyword  *service.KeywordService
	Resource *service.ResourceService
	Document *service.DocumentService
	Search   *service.SearchService // nil when search is disabled
}
