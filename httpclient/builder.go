package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/restkit/version"
)

// buildRequest translates a Request descriptor into an *http.Request,
// injecting the bearer token unless the descriptor already carries an
// Authorization header. Pure: it never mutates the descriptor.
func (c *Client) buildRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	target, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := c.encodeRequestBody(req.Body)
	if err != nil {
		return nil, NewEncodingError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewInvalidURLError(target, err)
	}

	// Client defaults first, descriptor headers override.
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", version.UserAgent())
	}

	// Descriptor-supplied Authorization wins over the stored token.
	if token != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// resolveURL joins base URL, path, and query parameters into a
// well-formed URL. Query keys are encoded in sorted order so the
// result is deterministic.
func (c *Client) resolveURL(req Request) (string, error) {
	base := c.config.BaseURL
	if req.BaseURL != "" {
		base = req.BaseURL
	}

	target := req.Path
	if base != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", NewInvalidURLError(target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewInvalidURLError(target, nil)
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// encodeRequestBody converts a body value into an io.Reader and a
// content type. Raw byte and string bodies bypass the codec.
func (c *Client) encodeRequestBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := c.codec.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), c.codec.ContentType(), nil
	}
}
