// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always share one envelope:
//
//	{ "status": "error", "error": "<summary>", "details": [ ... ] }
//
// details is present only for input errors and lists every failing field.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status  string           `json:"status"`
	Error   string           `json:"error"`
	Details []FieldViolation `json:"details,omitempty"`
}

// FieldViolation describes one field that broke one constraint.
//
//	{ "field": "grades_avg", "constraint": "max", "param": "6",
//	  "message": "field grades_avg must be at most 6" }
type FieldViolation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Param      string `json:"param,omitempty"`
	Message    string `json:"message"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data JSON-encoded with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// InvalidID reports a path identifier that is not a well-formed store id.
func InvalidID(id string) Response {
	v := FieldViolation{
		Field:      "id",
		Constraint: "objectid",
		Message:    fmt.Sprintf("field id must be a 24-character hex string, got %q", id),
	}

	return Response{
		Status:  StatusError,
		Error:   v.Message,
		Details: []FieldViolation{v},
	}
}

// DecodeError converts a JSON decoding failure into an input-error
// Response. Type mismatches are reported against the offending field.
func DecodeError(err error) Response {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		v := FieldViolation{
			Field:      typeErr.Field,
			Constraint: "type",
			Param:      typeErr.Type.String(),
			Message:    fmt.Sprintf("field %s must be of type %s, got %s", typeErr.Field, jsonType(typeErr.Type), typeErr.Value),
		}
		return Response{
			Status:  StatusError,
			Error:   v.Message,
			Details: []FieldViolation{v},
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Response{
			Status: StatusError,
			Error:  fmt.Sprintf("malformed JSON at offset %d: %s", syntaxErr.Offset, syntaxErr.Error()),
		}
	}

	return GeneralError(err)
}

// ValidationError converts every validator.FieldError into a
// FieldViolation. Error holds the messages joined with ", " for clients
// that only read the summary.
//
// Example output:
//
//	{ "status": "error",
//	  "error": "field name must be at least 2 characters long, field courses must contain at least 1 item",
//	  "details": [ ... ] }
func ValidationError(errs validator.ValidationErrors) Response {
	details := make([]FieldViolation, 0, len(errs))
	messages := make([]string, 0, len(errs))

	for _, e := range errs {
		v := FieldViolation{
			Field:      e.Field(),
			Constraint: e.ActualTag(),
			Param:      e.Param(),
			Message:    violationMessage(e),
		}
		details = append(details, v)
		messages = append(messages, v.Message)
	}

	return Response{
		Status:  StatusError,
		Error:   strings.Join(messages, ", "),
		Details: details,
	}
}

func violationMessage(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "min":
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("field %s must be at least %s characters long", e.Field(), e.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("field %s must contain at least %s item(s)", e.Field(), e.Param())
		default:
			return fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param())
		}
	case "max":
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("field %s must be at most %s characters long", e.Field(), e.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("field %s must contain at most %s item(s)", e.Field(), e.Param())
		default:
			return fmt.Sprintf("field %s must be at most %s", e.Field(), e.Param())
		}
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	default:
		return "object"
	}
}
