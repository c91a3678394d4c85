package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/students-mongo-api/internal/http/middleware"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/mongodb/mongotest"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter() http.Handler {
	return New(mongotest.Provider{Collection: mongotest.NewCollection()}, zap.NewNop())
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestHomeRoute(t *testing.T) {
	router := setupRouter()

	w := serve(router, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Test Connection"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestUnknownPath(t *testing.T) {
	w := serve(setupRouter(), http.MethodGet, "/courses/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	w := serve(setupRouter(), http.MethodPut, "/students/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSlashlessRedirectKeepsMethod(t *testing.T) {
	router := setupRouter()
	const id = "507f1f77bcf86cd799439011"

	cases := []struct {
		method   string
		path     string
		location string
	}{
		{http.MethodPost, "/students", "/students/"},
		{http.MethodGet, "/students", "/students/"},
		{http.MethodGet, "/students/" + id, "/students/" + id + "/"},
		{http.MethodPatch, "/students/" + id, "/students/" + id + "/"},
		{http.MethodDelete, "/students/" + id, "/students/" + id + "/"},
		{http.MethodGet, "/students?sort=name", "/students/?sort=name"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(router, tc.method, tc.path, `{"name":"Jo"}`)

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, tc.location, w.Header().Get("Location"))
		})
	}
}

func TestIsSlashlessStudentPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/students":         true,
		"/students/abc":     true,
		"/students/":        false,
		"/students/abc/":    false,
		"/students/abc/def": false,
		"/studentsx":        false,
		"/":                 false,
	} {
		assert.Equal(t, want, isSlashlessStudentPath(path), path)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := setupRouter()
	serve(router, http.MethodGet, "/", "")

	w := serve(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `students_api_http_requests_total{method="GET",route="GET /{$}",status="200"}`)
}

func TestEndToEnd(t *testing.T) {
	router := setupRouter()

	w := serve(router, http.MethodPost, "/students/",
		`{"name":"Jo","email":"jo@x.co","grades_avg":5.5,"courses":["math"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created types.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Jo", created.Name)
	assert.Equal(t, "jo@x.co", created.Email)
	assert.Equal(t, 5.5, created.GradesAvg)
	assert.Equal(t, []string{"math"}, created.Courses)

	w = serve(router, http.MethodGet, "/students/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var students []types.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &students))

	matches := 0
	for _, s := range students {
		if s.ID == created.ID {
			matches++
			assert.Equal(t, created, s)
		}
	}
	assert.Equal(t, 1, matches)

	path := "/students/" + created.ID + "/"

	w = serve(router, http.MethodPatch, path, `{"grades_avg":6}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"id":"`+created.ID+`","name":"Jo","email":"jo@x.co","grades_avg":6,"courses":["math"]}`,
		w.Body.String(),
	)

	w = serve(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
