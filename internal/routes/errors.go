package routes

import (
	"errors"
	"net/http"

	gojwt "github.com/golang-jwt/jwt/v5"

	"cxc-checkin/internal/events"
	"cxc-checkin/internal/jwt"
	"cxc-checkin/internal/nfc"
	"cxc-checkin/internal/profiles"
	"cxc-checkin/internal/storage"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application

	// Detailed errors carry their own validation message, which is shown
	// instead of Message.
	Detailed bool
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenRevoked = errors.New("token has been revoked")

	// Authorization errors
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrProfileRequired         = errors.New("no profile for authenticated user")

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")

	// Internal errors
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:       http.StatusBadRequest,
	ErrMissingParameter:     http.StatusBadRequest,
	ErrInvalidParameter:     http.StatusBadRequest,
	events.ErrInvalidEvent:  http.StatusBadRequest,
	events.ErrInvalidWindow: http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:                    http.StatusUnauthorized,
	ErrTokenRevoked:                    http.StatusUnauthorized,
	jwt.ErrNonValidToken:               http.StatusUnauthorized,
	jwt.ErrInvalidClaimType:            http.StatusUnauthorized,
	jwt.ErrMissingSubject:              http.StatusUnauthorized,
	gojwt.ErrTokenExpired:              http.StatusUnauthorized,
	gojwt.ErrTokenMalformed:            http.StatusUnauthorized,
	gojwt.ErrTokenInvalidAudience:      http.StatusUnauthorized,
	gojwt.ErrTokenSignatureInvalid:     http.StatusUnauthorized,
	gojwt.ErrTokenUnverifiable:         http.StatusUnauthorized,
	gojwt.ErrTokenNotValidYet:          http.StatusUnauthorized,
	gojwt.ErrTokenRequiredClaimMissing: http.StatusUnauthorized,

	// 403 Forbidden
	ErrForbidden:               http.StatusForbidden,
	ErrInsufficientPermissions: http.StatusForbidden,
	ErrProfileRequired:         http.StatusForbidden,

	// 404 Not Found
	events.ErrEventNotFound:     http.StatusNotFound,
	events.ErrProfileNotFound:   http.StatusNotFound,
	profiles.ErrProfileNotFound: http.StatusNotFound,
	storage.ErrNotFound:         http.StatusNotFound,

	// 409 Conflict
	events.ErrEventNotOpen: http.StatusConflict,
	storage.ErrConflict:    http.StatusConflict,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,
	jwt.ErrNoSecret:   http.StatusInternalServerError,
	nfc.ErrNoSecret:   http.StatusInternalServerError,

	// 503 Service Unavailable
	ErrServiceUnavailable: http.StatusServiceUnavailable,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	// Authentication
	ErrUnauthorized: {
		Message:   "Authentication required",
		StopCodes: []string{"AUTH_REQUIRED"},
	},
	ErrTokenRevoked: {
		Message:   "Session has been signed out",
		StopCodes: []string{"AUTH_TOKEN_REVOKED"},
	},
	gojwt.ErrTokenExpired: {
		Message:   "Authentication token has expired",
		StopCodes: []string{"AUTH_TOKEN_EXPIRED"},
	},
	jwt.ErrNonValidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},

	// Authorization
	ErrForbidden: {
		Message:   "Access denied",
		StopCodes: []string{"FORBIDDEN"},
	},
	ErrInsufficientPermissions: {
		Message:   "You don't have permission to perform this action",
		StopCodes: []string{"INSUFFICIENT_PERMISSIONS"},
	},
	ErrProfileRequired: {
		Message:   "Profile not found for the signed in user",
		StopCodes: []string{"PROFILE_REQUIRED"},
	},

	// Validation
	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	ErrMissingParameter: {
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	},
	ErrInvalidParameter: {
		Message:   "Invalid parameter value",
		StopCodes: []string{"INVALID_PARAMETER"},
	},
	events.ErrInvalidEvent: {
		StopCodes: []string{"INVALID_EVENT"},
		Detailed:  true,
	},
	events.ErrInvalidWindow: {
		StopCodes: []string{"INVALID_EVENT_WINDOW"},
		Detailed:  true,
	},

	// Lookups
	events.ErrEventNotFound: {
		Message:   "Event not found",
		StopCodes: []string{"EVENT_NOT_FOUND"},
	},
	events.ErrProfileNotFound: {
		Message:   "User not found",
		StopCodes: []string{"PROFILE_NOT_FOUND"},
	},
	profiles.ErrProfileNotFound: {
		Message:   "User not found",
		StopCodes: []string{"PROFILE_NOT_FOUND"},
	},
	storage.ErrNotFound: {
		Message:   "Record not found",
		StopCodes: []string{"NOT_FOUND"},
	},
	events.ErrEventNotOpen: {
		StopCodes: []string{"EVENT_NOT_OPEN"},
		Detailed:  true,
	},
	storage.ErrConflict: {
		Message:   "Record already exists",
		StopCodes: []string{"CONFLICT"},
	},

	// Internal (no stop codes for internal errors)
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
	jwt.ErrNoSecret: {
		Message: "Authentication is not configured",
	},
	nfc.ErrNoSecret: {
		Message: "NFC ids are not configured",
	},
	ErrServiceUnavailable: {
		Message: "Service is temporarily unavailable",
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	// Check if it's already an HTTPError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	// Check direct match
	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	// Default to 500 Internal Server Error
	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		message := httpErr.Message
		if message == "" && !httpErr.Internal && httpErr.Err != nil {
			message = httpErr.Err.Error()
		}
		return ErrorInfo{
			Message:   message,
			StopCodes: httpErr.StopCodes,
		}
	}

	info, ok := errorInfoMap[err]
	if !ok {
		for knownErr, known := range errorInfoMap {
			if errors.Is(err, knownErr) {
				info, ok = known, true
				break
			}
		}
	}
	if ok {
		if info.Detailed {
			info.Message = err.Error()
		}
		return info
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}

// GetErrorMessage returns a user-friendly message for an error
func GetErrorMessage(err error) string {
	return GetErrorInfo(err).Message
}

// GetErrorStopCodes returns stop codes for an error
func GetErrorStopCodes(err error) []string {
	return GetErrorInfo(err).StopCodes
}
