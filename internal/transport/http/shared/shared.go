// Package shared centralizes JSON envelope handling so every handler encodes
// responses and translates domain errors the same way.
package shared

import (
	"encoding/json"
	"net/http"

	derrors "passbuy/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Errors
// without a domain code become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	WriteJSON(w, derrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": derrors.MessageOf(err),
	})
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return derrors.Wrap(err, derrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
