// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the envelope returned for error cases and confirmations.
//
// Success responses may return any JSON shape (a student, a list…).
// Error responses always look like:
//
//	{ "message": "update student failed", "detail": "context deadline exceeded" }
//
// Detail carries the underlying error text and is left out when empty.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Message builds a Response with no detail.
func Message(msg string) Response {
	return Response{Message: msg}
}

// GeneralError wraps an error under a short, stable message.
//
//	response.WriteJSON(w, http.StatusInternalServerError,
//	    response.GeneralError("remove student failed", err))
func GeneralError(msg string, err error) Response {
	r := Response{Message: msg}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}

// ValidationError converts validator field errors into a single
// human-readable Response.
//
// Example output:
//
//	{ "message": "field name is required, field age must be at least 0" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{Message: strings.Join(errMessages, ", ")}
}
