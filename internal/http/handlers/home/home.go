// Package home serves the root liveness endpoint.
package home

import (
	"net/http"

	"github.com/aanand-mishra/students-mongo-api/internal/utils/response"
)

// Message is the fixed body of GET /.
const Message = "Test Connection"

// Get handles GET / with {"message": "Test Connection"}.
func Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"message": Message})
	}
}
