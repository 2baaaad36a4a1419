package response

import "net/http"

// HTTPError is an error that renders as a JSON body with its own status.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHTTPError creates an error with the given status, code and message.
func NewHTTPError(status int, code, message string) HTTPError {
	return HTTPError{Status: status, Code: code, Message: message}
}

func statusError(status int, code string) HTTPError {
	return NewHTTPError(status, code, http.StatusText(status))
}

func (e HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status written by Error.
func (e HTTPError) StatusCode() int { return e.Status }

// WithMessage returns a copy carrying message instead of the status text.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy carrying details. The map is not copied.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

var (
	ErrBadRequest            = statusError(http.StatusBadRequest, "bad_request")
	ErrUnauthorized          = statusError(http.StatusUnauthorized, "unauthorized")
	ErrNotFound              = statusError(http.StatusNotFound, "not_found")
	ErrMethodNotAllowed      = statusError(http.StatusMethodNotAllowed, "method_not_allowed")
	ErrRequestEntityTooLarge = statusError(http.StatusRequestEntityTooLarge, "request_entity_too_large")
	ErrInternalServerError   = statusError(http.StatusInternalServerError, "internal_server_error")
	ErrServiceUnavailable    = statusError(http.StatusServiceUnavailable, "service_unavailable")
)

var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusNotFound:              ErrNotFound,
	http.StatusMethodNotAllowed:      ErrMethodNotAllowed,
	http.StatusRequestEntityTooLarge: ErrRequestEntityTooLarge,
	http.StatusInternalServerError:   ErrInternalServerError,
	http.StatusServiceUnavailable:    ErrServiceUnavailable,
}
