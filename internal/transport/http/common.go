package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
)

var validate = validator.New()

type authContextKey struct{}

type authContext struct {
	UserID string
	OrgID  string
}

// CurrentUserID returns the authenticated user ID, empty when the
// request skipped the auth middleware.
func CurrentUserID(r *http.Request) string {
	if ac, ok := r.Context().Value(authContextKey{}).(authContext); ok {
		return ac.UserID
	}
	return ""
}

// CurrentOrgID returns the authenticated organization ID.
func CurrentOrgID(r *http.Request) string {
	if ac, ok := r.Context().Value(authContextKey{}).(authContext); ok {
		return ac.OrgID
	}
	return ""
}

func decodeJSONRequest(r *http.Request, out any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		field := verrs[0]
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Validation Error", "invalid field: "+field.Field()))
		return
	}
	errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Validation Error", "invalid request body"))
}
