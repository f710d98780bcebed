package client

import (
	"errors"
	"fmt"
)

// ErrNoRows is returned by single-row selects that matched nothing.
var ErrNoRows = errors.New("no rows")

// ErrCategoryNotFound matches any *CategoryNotFoundError via errors.Is.
var ErrCategoryNotFound = errors.New("category not found")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// CategoryNotFoundError reports a category name with no row in the categories table.
type CategoryNotFoundError struct {
	Name string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category %q not found", e.Name)
}

func (e *CategoryNotFoundError) Is(target error) bool {
	return target == ErrCategoryNotFound
}

// Message returns the text to show a user for err: the service's own message
// for API errors, the error string otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	var catErr *CategoryNotFoundError
	if errors.As(err, &catErr) {
		return catErr.Error()
	}
	return err.Error()
}
