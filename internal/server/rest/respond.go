package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	writeJSON(w, apperr.StatusCode(e.Kind), ErrorResponse{Code: e.Code, Message: e.Message, Fields: e.Fields})
}

// mapError writes domain errors as they are and logs anything else behind a
// generic internal error.
func (s *HTTPServer) mapError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := apperr.As(err); ok {
		writeError(w, e)
		return
	}
	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, apperr.Internal())
}
