// Package router builds the complete HTTP handler for the service.
//
// Route table (trailing slashes are part of the contract):
//
//	GET    /                 → liveness message
//	GET    /metrics          → Prometheus exposition
//	POST   /students/        → create a new student
//	GET    /students/        → list all students
//	GET    /students/{id}/   → get one student by id
//	PATCH  /students/{id}/   → update some fields of a student
//	DELETE /students/{id}/   → delete a student
//
// {$} anchors a pattern to the exact path, so "/students/" does not swallow
// everything below it. "/students" and "/students/{id}" are redirected with
// 307 to their slash-terminated form, so clients that follow the redirect
// repeat the same method and body.
package router

import (
	"net/http"
	"strings"

	"github.com/aanand-mishra/students-mongo-api/internal/http/handlers/home"
	"github.com/aanand-mishra/students-mongo-api/internal/http/handlers/student"
	"github.com/aanand-mishra/students-mongo-api/internal/http/middleware"
	"github.com/aanand-mishra/students-mongo-api/internal/metrics"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"go.uber.org/zap"
)

// New registers every route against provider and wraps the mux with the
// request-id and observation middleware.
func New(provider storage.Provider, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", home.Get())
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /students/{$}", student.New(provider, log))
	mux.HandleFunc("GET /students/{$}", student.GetList(provider, log))
	mux.HandleFunc("GET /students/{id}/{$}", student.GetByID(provider, log))
	mux.HandleFunc("PATCH /students/{id}/{$}", student.Update(provider, log))
	mux.HandleFunc("DELETE /students/{id}/{$}", student.Delete(provider, log))

	return middleware.WithRequestID(middleware.Observe(log, redirectSlashless(mux)))
}

// redirectSlashless answers a student path that is missing its trailing
// slash with a 307 to the canonical path. ServeMux would answer 301, which
// clients replay as GET.
func redirectSlashless(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isSlashlessStudentPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		u := *r.URL
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
		http.Redirect(w, r, u.RequestURI(), http.StatusTemporaryRedirect)
	})
}

// isSlashlessStudentPath matches "/students" and "/students/{id}".
func isSlashlessStudentPath(path string) bool {
	rest, ok := strings.CutPrefix(path, "/students")
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}

	id, ok := strings.CutPrefix(rest, "/")
	return ok && id != "" && !strings.Contains(id, "/")
}
