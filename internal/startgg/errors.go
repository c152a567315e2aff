package startgg

import (
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned when the API answers with a non-200 HTTP status.
// The paginator inspects the code to decide between retrying (429) and
// propagating.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("start.gg returned HTTP %d: %s", e.Code, e.Body)
}

// RateLimited reports whether the failure was an HTTP 429
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// FormatError is returned when the response body is not valid JSON
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("start.gg response is not valid JSON: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// GraphQLError is a single entry of a GraphQL errors collection
type GraphQLError struct {
	Message string `json:"message"`
}

// APIError is returned when the HTTP exchange succeeded but the GraphQL
// payload carries an errors collection. The collection is kept verbatim
// for diagnostics.
type APIError struct {
	Errors []GraphQLError
}

func (e *APIError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, gqlErr := range e.Errors {
		msgs[i] = gqlErr.Message
	}
	return fmt.Sprintf("start.gg query failed: %s", strings.Join(msgs, "; "))
}
