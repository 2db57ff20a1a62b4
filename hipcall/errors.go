package hipcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid hipcall configuration")
	// ErrInvalidInput indicates an operation argument the API would reject
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionClosed is returned by AsyncClient operations issued outside Open/Close
	ErrSessionClosed = errors.New("hipcall: async session is not open")

	// ErrBadRequest is the kind of a 400 response
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized is the kind of a 401 response
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is the kind of a 404 response
	ErrNotFound = errors.New("not found")
	// ErrUnprocessableEntity is the kind of a 422 response
	ErrUnprocessableEntity = errors.New("unprocessable entity")
	// ErrAPI is the kind of any other non-success response
	ErrAPI = errors.New("hipcall API error")
)

// statusKinds maps HTTP status codes to error kinds. Codes not listed map to ErrAPI.
var statusKinds = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusNotFound:            ErrNotFound,
	http.StatusUnprocessableEntity: ErrUnprocessableEntity,
}

// kindMessages renders the human readable message for each kind
var kindMessages = map[error]func(e *APIError) string{
	ErrBadRequest: func(e *APIError) string {
		if detail := e.errorDetail(); detail != "" {
			return "Bad request: " + detail
		}
		return "Bad request: " + string(e.Body)
	},
	ErrUnauthorized: func(*APIError) string {
		return "Invalid API key or unauthorized access"
	},
	ErrNotFound: func(*APIError) string {
		return "The requested resource was not found"
	},
	ErrUnprocessableEntity: func(e *APIError) string {
		if fields := e.fieldErrors(); fields != "" {
			return "The request was unprocessable: Errors: " + fields
		}
		return "The request was unprocessable: " + string(e.Body)
	},
}

// APIError represents a non-success response from the Hipcall API
type APIError struct {
	StatusCode int
	Body       json.RawMessage
	kind       error
}

// newAPIError builds the APIError for a status code using the kind table
func newAPIError(statusCode int, body json.RawMessage) *APIError {
	kind, ok := statusKinds[statusCode]
	if !ok {
		kind = ErrAPI
	}
	return &APIError{StatusCode: statusCode, Body: body, kind: kind}
}

// Error implements the error interface
func (e *APIError) Error() string {
	if render, ok := kindMessages[e.Kind()]; ok {
		return render(e)
	}
	return fmt.Sprintf("Unexpected error. Status: %d, Content: %s", e.StatusCode, string(e.Body))
}

// Unwrap returns the kind sentinel so errors.Is(err, ErrNotFound) works
func (e *APIError) Unwrap() error {
	return e.Kind()
}

// Kind returns the error kind sentinel for this response
func (e *APIError) Kind() error {
	if e.kind == nil {
		return newAPIError(e.StatusCode, e.Body).kind
	}
	return e.kind
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// errorBody is the error envelope of 400 and 422 responses
type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

// errorDetail extracts errors.detail from the body
func (e *APIError) errorDetail() string {
	var body errorBody
	if err := json.Unmarshal(e.Body, &body); err != nil || len(body.Errors) == 0 {
		return ""
	}
	var detail struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body.Errors, &detail); err != nil || detail.Detail == nil {
		return ""
	}
	if s, ok := detail.Detail.(string); ok {
		return s
	}
	return fmt.Sprint(detail.Detail)
}

// fieldErrors flattens errors{field: [messages]} into "field: m1, m2 | other: m3"
func (e *APIError) fieldErrors() string {
	var body errorBody
	if err := json.Unmarshal(e.Body, &body); err != nil || len(body.Errors) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body.Errors, &fields); err != nil || len(fields) == 0 {
		return ""
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		var messages []string
		if err := json.Unmarshal(fields[name], &messages); err != nil {
			var single string
			if err := json.Unmarshal(fields[name], &single); err != nil {
				messages = []string{string(fields[name])}
			} else {
				messages = []string{single}
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(messages, ", ")))
	}
	return strings.Join(parts, " | ")
}

// DecodeError is returned when a response body is not JSON or does not match
// the expected model.
type DecodeError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response (status %d): %v", e.Op, e.StatusCode, e.Err)
}

// Unwrap returns the underlying decode failure
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HandleResponse passes content through for 200 and 201 and converts every
// other status into an *APIError carrying the status code and body.
func HandleResponse(statusCode int, content json.RawMessage) (json.RawMessage, error) {
	switch statusCode {
	case http.StatusOK, http.StatusCreated:
		return content, nil
	}
	return nil, newAPIError(statusCode, content)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsBadRequest reports whether err is a 400 from the API
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsUnprocessableEntity reports whether err is a 422 from the API
func IsUnprocessableEntity(err error) bool {
	return errors.Is(err, ErrUnprocessableEntity)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an API error
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
