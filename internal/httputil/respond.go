// Package httputil provides JSON request/response helpers shared by the API
// handlers and middleware.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ledgerline/invoiceadmin/internal/errors"
)

// ErrorResponse is the wire shape of every error payload.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Errors  map[string][]string    `json:"errors,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a plain error message.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}

// WriteServiceError writes a ServiceError with its status, code and any
// per-field validation messages. Only the user-facing message is emitted;
// the wrapped cause stays server-side.
func WriteServiceError(w http.ResponseWriter, serviceErr *errors.ServiceError) {
	WriteJSON(w, serviceErr.HTTPStatus, ErrorResponse{
		Error:   serviceErr.Message,
		Code:    string(serviceErr.Code),
		Errors:  serviceErr.Fields,
		Details: serviceErr.Details,
	})
}
