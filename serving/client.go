package serving

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/httpclient"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
)

// Predictor sends prediction requests to a running server.
type Predictor interface {
	Predict(ctx context.Context, url string, req *Payload) (*Payload, error)
}

// Client is the HTTP Predictor.
type Client struct {
	http    *httpclient.Client
	metrics *observability.Metrics
}

// NewClient creates a prediction client. Retryable failures (connection
// errors, 429 and 5xx) are retried per cfg.Retry; nil means the
// httpclient default.
func NewClient(cfg httpclient.Config, metrics *observability.Metrics, log *logger.Logger) (*Client, error) {
	if cfg.Service == "" {
		cfg.Service = "prediction-server"
	}
	if cfg.Retry == nil {
		cfg.Retry = httpclient.DefaultRetryConfig()
	}
	c, err := httpclient.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Client{http: c, metrics: metrics}, nil
}

// Predict posts req to url and returns the decoded response.
func (c *Client) Predict(ctx context.Context, url string, req *Payload) (*Payload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanPredict)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRows, len(req.Data.NDArray))

	start := time.Now()
	var resp Payload
	if err := c.http.PostJSON(ctx, url, req, &resp); err != nil {
		var herr *httpclient.Error
		if stderrors.As(err, &herr) {
			err = herr.AppError()
		}
		observability.SetSpanError(ctx, err)
		if c.metrics != nil {
			code := string(errors.ErrCodeInternal)
			if appErr, ok := errors.AsAppError(err); ok {
				code = string(appErr.Code)
			}
			c.metrics.RecordError(ctx, code, "serving")
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordPrediction(ctx, len(req.Data.NDArray), time.Since(start))
	}
	return &resp, nil
}
