package httpclient

import (
	"context"
	"errors"
	"net/http"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithBaseURL overrides the client base URL for the request.
func WithBaseURL(baseURL string) RequestOption {
	return func(r *Request) {
		r.BaseURL = baseURL
	}
}

// Get performs a GET request and decodes the response into type T.
func Get[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with a body and decodes the response into type T.
func Post[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with a body and decodes the response into type T.
func Put[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPut, path, body, opts...)
}

// Patch performs a PATCH request with a body and decodes the response into type T.
func Patch[T any](c *Client, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodPatch, path, body, opts...)
}

// Delete performs a DELETE request and decodes the response into type T.
func Delete[T any](c *Client, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](c, ctx, http.MethodDelete, path, nil, opts...)
}

// UploadBinary uploads raw bytes via POST and decodes the response into type T.
func UploadBinary[T any](c *Client, ctx context.Context, path string, payload UploadPayload, opts ...RequestOption) (*TypedResponse[T], error) {
	req := newRequest(http.MethodPost, path, nil, opts...)
	resp, err := c.Upload(ctx, req, payload)
	return decodeTyped[T](c, resp, err)
}

// UploadMultipart uploads a multipart/form-data payload via POST and
// decodes the response into type T.
func UploadMultipart[T any](c *Client, ctx context.Context, path string, payload UploadPayload, opts ...RequestOption) (*TypedResponse[T], error) {
	req := newRequest(http.MethodPost, path, nil, opts...)
	resp, err := c.UploadMultipart(ctx, req, payload)
	return decodeTyped[T](c, resp, err)
}

func newRequest(method, path string, body any, opts ...RequestOption) Request {
	req := Request{
		Method: method,
		Path:   path,
		Body:   body,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// doTyped executes a typed request and decodes the response.
func doTyped[T any](c *Client, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	resp, err := c.Do(ctx, newRequest(method, path, body, opts...))
	return decodeTyped[T](c, resp, err)
}

// decodeTyped decodes a response body into T. On an HTTP error with a
// body that still decodes into T, the decoded value is returned
// alongside the error so callers can inspect structured failures.
func decodeTyped[T any](c *Client, resp *Response, err error) (*TypedResponse[T], error) {
	if err != nil {
		var herr *Error
		if resp != nil && errors.As(err, &herr) && (herr.Code == ErrCodeHTTP || herr.Code == ErrCodeHTTPData) {
			var data T
			if decErr := c.codec.Unmarshal(resp.Body, &data); decErr == nil {
				return &TypedResponse[T]{
					StatusCode: resp.StatusCode,
					Headers:    resp.Headers,
					Data:       data,
				}, err
			}
		}
		return nil, err
	}

	var data T
	if len(resp.Body) > 0 {
		if decErr := c.codec.Unmarshal(resp.Body, &data); decErr != nil {
			return nil, NewDecodingError(decErr)
		}
	}

	return &TypedResponse[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
	}, nil
}
