// Package errors carries HTTP-facing errors as RFC 7807 problem
// details.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

type Error struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func New(status int, title, detail string) *Error {
	return &Error{Type: "about:blank", Title: title, Status: status, Detail: detail}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// WriteError renders err as application/problem+json. Errors that are
// not problem details become an opaque 500 so internals never leak to
// clients.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	var problem *Error
	if !stderrors.As(err, &problem) {
		problem = New(http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}
