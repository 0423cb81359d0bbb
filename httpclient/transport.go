package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Transport is the capability that performs network I/O. It returns an
// error only on genuine transport failure (connectivity, DNS, etc);
// non-2xx responses come back as a normal *Response. Hosts inject
// their own implementation, tests inject doubles.
type Transport interface {
	// Send executes the request and returns the raw response.
	Send(ctx context.Context, req *http.Request) (*Response, error)
	// SendUpload executes the request with body as the request body.
	SendUpload(ctx context.Context, req *http.Request, body []byte) (*Response, error)
}

// HTTPTransport is the default Transport backed by *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport over the given *http.Client.
// A nil client uses http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

// Send executes the request and reads the full response body.
func (t *HTTPTransport) Send(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

// SendUpload executes the request with the given bytes as its body.
func (t *HTTPTransport) SendUpload(ctx context.Context, req *http.Request, body []byte) (*Response, error) {
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return t.Send(ctx, req)
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
