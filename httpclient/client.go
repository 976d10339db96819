package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/resilience"
)

// Client is a configurable HTTP client with retry.
type Client struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    log.WithComponent("httpclient").WithFields(map[string]any{"service": cfg.Service}),
	}, nil
}

// Do executes an HTTP request, retrying retryable failures when configured.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry == nil {
		return c.doOnce(ctx, req)
	}
	retry := *c.config.Retry
	onRetry := retry.OnRetry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("request failed, retrying", map[string]any{
			"attempt": attempt, "backoff": backoff.String(), "error": err.Error(),
		})
		if onRetry != nil {
			onRetry(attempt, err, backoff)
		}
	}
	return resilience.Retry(ctx, retry, func() (*Response, error) {
		return c.doOnce(ctx, req)
	})
}

// PostJSON posts in as JSON to path and decodes the response into out.
// out may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: in})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return &Error{Kind: KindEncoding, Service: c.config.Service, Method: http.MethodPost,
			URL: c.resolve(path), StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, req Request) (*Response, error) {
	url := c.resolve(req.Path)
	fail := func(kind Kind, retryable bool, err error) *Error {
		return &Error{Kind: kind, Service: c.config.Service, Method: req.Method,
			URL: url, Retryable: retryable, Err: err}
	}

	httpReq, err := c.buildRequest(ctx, url, req)
	if err != nil {
		return nil, fail(KindEncoding, false, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(KindTimeout, false, ctx.Err())
		}
		return nil, fail(KindConnection, true, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(KindConnection, true, fmt.Errorf("read response body: %w", err))
	}
	c.log.Debug("request completed", map[string]any{
		"method": req.Method, "url": url, "status": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}
	if classErr := classifyStatus(resp.StatusCode, body); classErr != nil {
		classErr.Service, classErr.Method, classErr.URL = c.config.Service, req.Method, url
		return result, classErr
	}
	return result, nil
}

func (c *Client) resolve(path string) string {
	if c.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) buildRequest(ctx context.Context, url string, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// encodeBody converts a body value into a reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
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
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders keeps the first value of each header.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
