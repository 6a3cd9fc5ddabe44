package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearningScenario_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)

	scenario := map[string]any{
		"title": "Photosynthesis lab",
		"nodes": []any{
			map[string]any{"id": "n1", "type": "oer", "ref": "oer-1"},
			map[string]any{"id": "n2", "type": "quiz"},
		},
		"edges":      []any{map[string]any{"from": "n1", "to": "n2"}},
		"lessonPlan": map[string]any{"minutes": 45.0},
	}

	resp := ts.api.Post("/api/saveLearningScenario", scenario)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	saved := decode[SaveDocumentResponse](t, resp)
	assert.True(t, strings.HasPrefix(saved.ID, "scn-"), "generated id %q", saved.ID)
	assert.Equal(t, saved.ID, saved.Document["id"])

	resp = ts.api.Get("/api/getLearningScenario/" + saved.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	got := decode[map[string]any](t, resp)
	assert.Equal(t, "Photosynthesis lab", got["title"])
	assert.Equal(t, scenario["nodes"], got["nodes"])
	assert.Equal(t, scenario["edges"], got["edges"])
	assert.Equal(t, scenario["lessonPlan"], got["lessonPlan"])

	list := decode[DocumentsResponse](t, ts.api.Get("/api/getLearningScenarios"))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, saved.ID, list.Documents[0]["id"])

	resp = ts.api.Delete("/api/deleteLearningScenario/" + saved.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	apiErr := assertError(t, ts.api.Get("/api/getLearningScenario/"+saved.ID), http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, "learning scenario not found", apiErr.Message)
}

func TestLearningPath_ReplaceByID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/saveLearningPath", map[string]any{"id": "path-algebra", "title": "Algebra v1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/saveLearningPath", map[string]any{"id": "path-algebra", "title": "Algebra v2", "steps": 3.0})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := decode[map[string]any](t, ts.api.Get("/api/getLearningPath/path-algebra"))
	assert.Equal(t, "Algebra v2", got["title"])
	assert.Equal(t, 3.0, got["steps"])

	list := decode[DocumentsResponse](t, ts.api.Get("/api/getLearningPaths"))
	assert.Len(t, list.Documents, 1)
}

func TestDocuments_KindsAreSeparate(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/saveLearningPath", map[string]any{"id": "shared-id", "title": "A path"})
	require.Equal(t, http.StatusOK, resp.Code)

	assertError(t, ts.api.Get("/api/getLearningScenario/shared-id"), http.StatusNotFound, "NOT_FOUND")

	scenarios := decode[DocumentsResponse](t, ts.api.Get("/api/getLearningScenarios"))
	assert.Empty(t, scenarios.Documents)
}

func TestDocuments_Invalid(t *testing.T) {
	ts := setupTestServer(t)

	assertError(t, ts.api.Post("/api/saveLearningScenario", map[string]any{"id": 12}), http.StatusBadRequest, "VALIDATION")
	assertError(t, ts.api.Post("/api/saveLearningPath", map[string]any{"id": "a/b"}), http.StatusBadRequest, "VALIDATION")
	assertError(t, ts.api.Delete("/api/deleteLearningPath/missing"), http.StatusNotFound, "NOT_FOUND")
}

func TestDocuments_EmptyListIsArray(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/getLearningPaths")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"documents":[]}`, resp.Body.String())
}
