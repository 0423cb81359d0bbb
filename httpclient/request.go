package httpclient

// Request describes one outbound HTTP call. It is a value: build it,
// pass it to the client, and discard it. Concurrent calls never share
// request state.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL if BaseURL is empty.
	Path string
	// BaseURL overrides the client-level base URL for this request.
	BaseURL string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Query are URL query parameters, percent-encoded in sorted key order.
	Query map[string]string
	// Body is the request body, serialized by the client's Codec.
	// []byte and string values are sent as-is.
	Body any
}

// Response is the raw result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// UploadPayload describes a file upload. For multipart uploads the
// Fields map is emitted as form-data parts ahead of the file part.
type UploadPayload struct {
	// Data is the raw file content.
	Data []byte
	// FileName is the file name sent to the server. Defaults to "file".
	FileName string
	// MIMEType is the file content type. Defaults to application/octet-stream.
	MIMEType string
	// Fields are form fields sent alongside the file (multipart only).
	Fields map[string]string
}
