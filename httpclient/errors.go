package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeInvalidURL indicates the descriptor could not form a valid URL.
	ErrCodeInvalidURL ErrorCode = iota
	// ErrCodeEncoding indicates the request body or an upload part could not be serialized.
	ErrCodeEncoding
	// ErrCodeHTTP indicates a non-2xx response with a decodable error payload.
	ErrCodeHTTP
	// ErrCodeHTTPData indicates a non-2xx response whose body could not be decoded.
	ErrCodeHTTPData
	// ErrCodeDecoding indicates a 2xx response body that failed to decode.
	ErrCodeDecoding
	// ErrCodeRefreshFailed indicates the token refresh call failed.
	ErrCodeRefreshFailed
	// ErrCodeUnknown indicates a transport-level failure (connectivity, etc).
	ErrCodeUnknown
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidURL:
		return "invalid_url"
	case ErrCodeEncoding:
		return "encoding"
	case ErrCodeHTTP:
		return "http"
	case ErrCodeHTTPData:
		return "http_data"
	case ErrCodeDecoding:
		return "decoding"
	case ErrCodeRefreshFailed:
		return "refresh_failed"
	case ErrCodeUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error. Exactly one variant of the
// taxonomy is active, identified by Code.
type Error struct {
	// StatusCode is the HTTP status code (0 for non-HTTP errors).
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Parsed is the decoded error payload (ErrCodeHTTP only).
	Parsed any
	// Body is the raw response body (ErrCodeHTTP and ErrCodeHTTPData).
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidURLError creates an invalid-URL error.
func NewInvalidURLError(target string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidURL,
		Message: fmt.Sprintf("malformed URL %q", target),
		Err:     err,
	}
}

// NewEncodingError creates a request encoding error.
func NewEncodingError(err error) *Error {
	return &Error{
		Code:    ErrCodeEncoding,
		Message: err.Error(),
		Err:     err,
	}
}

// NewHTTPError creates an error for a non-2xx response with a decoded payload.
func NewHTTPError(statusCode int, parsed any, body []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeHTTP,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Parsed:     parsed,
		Body:       body,
	}
}

// NewHTTPDataError creates an error for a non-2xx response with an undecodable body.
func NewHTTPDataError(statusCode int, body []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeHTTPData,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
}

// NewDecodingError creates a response decoding error.
func NewDecodingError(err error) *Error {
	return &Error{
		Code:    ErrCodeDecoding,
		Message: err.Error(),
		Err:     err,
	}
}

// NewRefreshFailedError creates a token refresh failure error.
func NewRefreshFailedError(err error) *Error {
	return &Error{
		Code:    ErrCodeRefreshFailed,
		Message: err.Error(),
		Err:     err,
	}
}

// NewUnknownError creates a transport-level error.
func NewUnknownError(err error) *Error {
	return &Error{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
		Err:     err,
	}
}

// classify converts a non-2xx response into a typed error, attempting
// to decode a structured error payload from the body first. Returns
// nil for 2xx status codes.
func classify(resp *Response, codec Codec) *Error {
	if resp.IsSuccess() {
		return nil
	}
	if len(resp.Body) > 0 {
		var parsed map[string]any
		if err := codec.Unmarshal(resp.Body, &parsed); err == nil && parsed != nil {
			return NewHTTPError(resp.StatusCode, parsed, resp.Body)
		}
	}
	return NewHTTPDataError(resp.StatusCode, resp.Body)
}

// IsInvalidURL checks if an error is an invalid-URL error.
func IsInvalidURL(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeInvalidURL
}

// IsEncoding checks if an error is an encoding error.
func IsEncoding(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeEncoding
}

// IsHTTP checks if an error carries a non-2xx status with a decoded payload.
func IsHTTP(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeHTTP
}

// IsHTTPData checks if an error carries a non-2xx status with a raw body.
func IsHTTPData(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeHTTPData
}

// IsDecoding checks if an error is a response decoding error.
func IsDecoding(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDecoding
}

// IsRefreshFailed checks if an error is a token refresh failure.
func IsRefreshFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeRefreshFailed
}

// IsUnknown checks if an error is a transport-level failure.
func IsUnknown(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnknown
}

// StatusCode extracts the HTTP status code from an error, if any.
func StatusCode(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.StatusCode > 0 {
		return e.StatusCode, true
	}
	return 0, false
}
