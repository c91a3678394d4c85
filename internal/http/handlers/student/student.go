// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// The router expects func(http.ResponseWriter, *http.Request). Each
// factory below receives its dependencies once, at route registration,
// and returns a handler that closes over them:
//
//	router.HandleFunc("POST /students/{$}", student.New(cluster, log))
//
// The dependency is a storage.Provider, not a collection. Every request
// asks the provider for the students collection and passes it explicitly
// to the data-access function, so no handler reaches for global state.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aanand-mishra/students-mongo-api/internal/http/middleware"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/mongodb"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/aanand-mishra/students-mongo-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students/
//
// Request body (JSON):
//
//	{ "name": "Jo", "email": "jo@x.co", "grades_avg": 5.5, "courses": ["math"] }
//
// Success response (201 Created): the stored student, including its id.
//
// Error responses:
//
//	422 Unprocessable: empty body, malformed JSON, or failed validation
//	500 Internal: store error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(provider storage.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)
		log.Info("creating a student")

		var in types.StudentIn
		if !decodeAndValidate(w, r, &in) {
			return
		}

		student, err := mongodb.AddStudent(r.Context(), provider.Students(), in)
		if err != nil {
			writeStoreError(w, log, "", err)
			return
		}

		log.Info("student created", zap.String("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// GetList handles GET /students/
// Returns a JSON array of all students; [] (not null) when there are none.
func GetList(provider storage.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(log, r)
		log.Info("getting all students")

		students, err := mongodb.ListStudents(r.Context(), provider.Students())
		if err != nil {
			writeStoreError(w, log, "", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}/
//
// Error responses:
//
//	422 Unprocessable: id is not a 24-character hex ObjectID
//	404 Not Found: no student has that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(provider storage.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log := requestLogger(log, r).With(zap.String("id", id))
		log.Info("getting a student")

		student, err := mongodb.GetStudent(r.Context(), provider.Students(), id)
		if err != nil {
			writeStoreError(w, log, id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /students/{id}/
// Changes only the fields present in the body; absent fields keep their
// stored value. An empty object {} is valid and returns the current record.
//
// Success response (200 OK): the student as stored after the update.
//
// Error responses:
//
//	422 Unprocessable: bad id, empty body, malformed JSON, failed validation
//	404 Not Found: no student has that id
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(provider storage.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log := requestLogger(log, r).With(zap.String("id", id))
		log.Info("updating a student")

		var patch types.StudentUpdate
		if !decodeAndValidate(w, r, &patch) {
			return
		}

		student, err := mongodb.UpdateStudent(r.Context(), provider.Students(), id, patch)
		if err != nil {
			writeStoreError(w, log, id, err)
			return
		}

		log.Info("student updated")
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Delete handles DELETE /students/{id}/
// Responds 204 with an empty body, 404 once the student is gone.
func Delete(provider storage.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		log := requestLogger(log, r).With(zap.String("id", id))
		log.Info("deleting a student")

		if err := mongodb.DeleteStudent(r.Context(), provider.Students(), id); err != nil {
			writeStoreError(w, log, id, err)
			return
		}

		log.Info("student deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeAndValidate decodes the JSON body into dst and runs its validate
// tags. On failure it writes the 422 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}

	if err != nil {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.DecodeError(err))
		return false
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.GeneralError(errors.New("request body must contain a single JSON object")))
		return false
	}

	if err := types.Validate(dst); err != nil {
		writeInputError(w, err)
		return false
	}

	return true
}

func writeInputError(w http.ResponseWriter, err error) {
	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(validateErrs))
		return
	}

	response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
}

// writeStoreError is the one place data-access errors become status codes.
func writeStoreError(w http.ResponseWriter, log *zap.Logger, id string, err error) {
	var validateErrs validator.ValidationErrors

	switch {
	case errors.Is(err, storage.ErrInvalidID):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.InvalidID(id))
	case errors.As(err, &validateErrs):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(validateErrs))
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrNotFound))
	default:
		log.Error("store operation failed", zap.Error(err))
		response.WriteJSON(w, http.StatusInternalServerError,
			response.GeneralError(errors.New("internal server error")))
	}
}

func requestLogger(log *zap.Logger, r *http.Request) *zap.Logger {
	return log.With(zap.String("request_id", middleware.RequestID(r.Context())))
}
