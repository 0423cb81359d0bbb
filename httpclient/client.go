package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/restkit/auth"
	"github.com/kbukum/restkit/logger"
)

// Client executes declarative requests: build, send through the
// transport, classify the outcome, and on a 401 refresh the token and
// retry the call exactly once.
type Client struct {
	transport Transport
	config    Config
	codec     Codec
	tokens    *auth.Store
	log       *logger.Logger
}

// New creates a new client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		transport: cfg.Transport,
		config:    cfg,
		codec:     cfg.Codec,
		tokens:    cfg.Tokens,
		log:       cfg.Logger,
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(&http.Client{Timeout: cfg.Timeout})
	}
	if c.log == nil {
		c.log = logger.Nop()
	}

	return c, nil
}

// Do executes a request and returns the raw response. Non-2xx
// responses are returned alongside a typed error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	return c.execute(ctx, req, nil, "")
}

// Upload sends the payload bytes as the request body without framing.
// Content type precedence: descriptor header, payload MIME type,
// application/octet-stream.
func (c *Client) Upload(ctx context.Context, req Request, payload UploadPayload) (*Response, error) {
	body, contentType := encodeBinary(payload, req.Headers["Content-Type"])
	return c.execute(ctx, req, body, contentType)
}

// UploadMultipart sends the payload framed as multipart/form-data,
// with form fields ahead of the file part.
func (c *Client) UploadMultipart(ctx context.Context, req Request, payload UploadPayload) (*Response, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, req, body, contentType)
}

// Codec returns the client's body codec.
func (c *Client) Codec() Codec {
	return c.codec
}

// Tokens returns the attached token store, if any.
func (c *Client) Tokens() *auth.Store {
	return c.tokens
}

// execute runs the pipeline for one logical call. A non-empty
// uploadContentType marks an upload call: the descriptor body is
// ignored, upload becomes the request body, and the encoder's content
// type overrides any descriptor content type.
func (c *Client) execute(ctx context.Context, req Request, upload []byte, uploadContentType string) (*Response, error) {
	requestID := uuid.NewString()

	// The upload encoder owns the body on upload calls.
	if uploadContentType != "" {
		req.Body = nil
	}

	// Refresh ahead of the call when the stored expiry says the token
	// is already stale. Failure here is not terminal: the request
	// proceeds and the 401 path below makes the final decision.
	if c.tokens != nil && c.tokens.NeedsRefresh() {
		if _, err := c.tokens.Refresh(ctx); err != nil {
			c.log.Debug("proactive token refresh failed", logger.Fields(
				logger.FieldRequestID, requestID,
				logger.FieldError, err.Error(),
			))
		}
	}

	token := c.accessToken()
	resp, err := c.attempt(ctx, req, token, upload, uploadContentType, requestID, 1)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		refreshed, rerr := c.tokens.Refresh(ctx)
		if rerr != nil {
			herr := classify(resp, c.codec)
			herr.Err = NewRefreshFailedError(rerr)
			return resp, herr
		}
		c.log.Debug("token refreshed, retrying request", logger.Fields(
			logger.FieldRequestID, requestID,
		))
		resp, err = c.attempt(ctx, req, refreshed.AccessToken, upload, uploadContentType, requestID, 2)
		if err != nil {
			return nil, err
		}
	}

	if cerr := classify(resp, c.codec); cerr != nil {
		return resp, cerr
	}
	return resp, nil
}

// attempt performs a single build-and-send pass.
func (c *Client) attempt(ctx context.Context, req Request, token string, upload []byte, uploadContentType string, requestID string, attempt int) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var resp *Response
	var sendErr error
	if uploadContentType != "" {
		// The upload encoder owns the content type (multipart carries
		// the boundary), so it wins over descriptor headers.
		httpReq.Header.Set("Content-Type", uploadContentType)
		resp, sendErr = c.transport.SendUpload(ctx, httpReq, upload)
	} else {
		resp, sendErr = c.transport.Send(ctx, httpReq)
	}
	if sendErr != nil {
		c.log.Debug("transport failure", logger.Fields(
			logger.FieldRequestID, requestID,
			"method", req.Method,
			"url", httpReq.URL.String(),
			"attempt", attempt,
			logger.FieldError, sendErr.Error(),
		))
		return nil, NewUnknownError(sendErr)
	}

	c.log.Debug("request completed", logger.Fields(
		logger.FieldRequestID, requestID,
		"method", req.Method,
		"url", httpReq.URL.String(),
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"attempt", attempt,
	))
	return resp, nil
}

// accessToken snapshots the current access token, if any.
func (c *Client) accessToken() string {
	if c.tokens == nil {
		return ""
	}
	token, _ := c.tokens.AccessToken()
	return token
}
