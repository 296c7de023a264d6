package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pkordes/globe-trotter/internal/auth"
	"github.com/pkordes/globe-trotter/internal/domain"
)

// currentUser returns the caller stored by the authentication middleware,
// or nil. Services turn nil into domain.ErrNotAuthenticated.
func currentUser(r *http.Request) *domain.User {
	return auth.UserFromContext(r.Context())
}

// decodeJSON decodes a single JSON object from the request body.
// Unknown fields are rejected so typos surface as 422s.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeFields decodes a flat JSON object of field assignments. Strings and
// numbers are accepted and passed on as text; null clears the field.
func decodeFields(r *http.Request) (map[string]string, error) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case string:
			out[name] = v
		case json.Number:
			out[name] = v.String()
		case nil:
			out[name] = ""
		default:
			return nil, domain.NewValidationError(name, "must be a string or a number")
		}
	}
	return out, nil
}

// writeDecodeError reports a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, r, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code:    "payload_too_large",
			Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
		}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, r, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, io.EOF):
		writeBadRequest(w, r, "request body is required")
	default:
		writeBadRequest(w, r, "malformed request body: "+err.Error())
	}
}

// queryInt parses an optional integer query parameter.
// A missing parameter yields nil.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, name+" must be an integer")
	}
	return &n, nil
}
