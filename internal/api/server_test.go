package api

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/search"
	"github.com/oerhub/oerhub-server/internal/service"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/badgerdb"
	"github.com/oerhub/oerhub-server/internal/validation"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

type testOption func(*config.Config)

func withPolicy(fn func(*config.PolicyConfig)) testOption {
	return func(cfg *config.Config) { fn(&cfg.Policy) }
}

func withoutSearch() testOption {
	return func(cfg *config.Config) { cfg.Search.Enabled = false }
}

func withRateLimit(rps float64, burst int) testOption {
	return func(cfg *config.Config) {
		cfg.Server.RateLimitRPS = rps
		cfg.Server.RateLimitBurst = burst
	}
}

// setupTestServer builds a server over an in-memory store and index.
func setupTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			RateLimitRPS:   0, // unlimited
			RateLimitBurst: 1,
		},
		Search: config.SearchConfig{Enabled: true},
		Policy: config.PolicyConfig{
			InitialCount:     1,
			MissingCount:     config.PolicyNotFound,
			MissingLike:      config.PolicyNotFound,
			DuplicateKeyword: config.PolicyUpsert,
			TopLimit:         5,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := slog.New(slog.DiscardHandler)

	st, err := badgerdb.Open("", nil, badgerdb.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var searchService *service.SearchService
	if cfg.Search.Enabled {
		index, err := search.NewSearchIndex(search.Options{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
		searchService = service.NewSearchService(index, st, logger)
	}

	services := newTestServices(st, searchService, cfg.Policy, logger)

	s := NewServer(cfg, st, services, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
	}
}

func newTestServices(st store.Store, searchService *service.SearchService, policy config.PolicyConfig, logger *slog.Logger) *Services {
	return &Services{
		Keyword:  service.NewKeywordService(st, policy, logger),
		Resource: service.NewResourceService(st, searchService, policy, validation.New(), logger),
		Document: service.NewDocumentService(st, searchService, logger),
		Search:   searchService,
	}
}

// decode unmarshals a recorded response body into T.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func assertError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) APIError {
	t.Helper()

	require.Equal(t, status, resp.Code, "body: %s", resp.Body.String())
	apiErr := decode[APIError](t, resp)
	assert.Equal(t, code, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
	assert.Equal(t, apiErr.Message, apiErr.ErrorText)
	return apiErr
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Body.String())
}

func TestComponentHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/health/components")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

func TestComponentHealth_SearchDisabled(t *testing.T) {
	ts := setupTestServer(t, withoutSearch())

	health := decode[HealthResponse](t, ts.api.Get("/api/health/components"))

	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "degraded", health.Components["search"].Status)
}

func TestComponentHealth_StoreClosed(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	health := decode[HealthResponse](t, ts.api.Get("/api/health/components"))

	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy", health.Components["store"].Status)
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServer(t, withRateLimit(0.001, 2))

	for range 2 {
		w := httptest.NewRecorder()
		ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	apiErr := assertError(t, w, http.StatusTooManyRequests, "RATE_LIMITED")
	assert.Contains(t, apiErr.Message, "Too many requests")

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.9:4242"
	w = httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponses_CarryOnlyDocumentedFields(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/saveKeyword", strings.NewReader(`{"keyword":"Physics"}`))
	req.Header.Set("Content-Type", "application/json")
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Link"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"message", "keyword"}, slices.Collect(maps.Keys(body)))

	resp := ts.api.Get("/api/getMaxCountOERs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"maxCountOERs":[]}`, resp.Body.String())
}

func TestRecoverer_PanicBecomesInternalError(t *testing.T) {
	ts := setupTestServer(t)
	ts.router.Get("/api/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/boom", nil))

	apiErr := assertError(t, w, http.StatusInternalServerError, "INTERNAL")
	assert.Equal(t, "internal error", apiErr.Message)
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/saveKeyword", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)

	doc := decode[map[string]any](t, resp)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{
		"/api/saveKeyword",
		"/api/getAllKeywords",
		"/api/saveOER",
		"/api/updateCount/{id}",
		"/api/getMaxCountOERs",
		"/api/saveLearningPath",
		"/api/searchOERs",
	} {
		assert.Contains(t, paths, p)
	}
}
