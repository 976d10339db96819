// Package resilience retries transient failures with exponential backoff.
//
//	cfg := resilience.DefaultRetryConfig()
//	preds, err := resilience.Retry(ctx, cfg, func() ([]float64, error) {
//	    return client.Predict(ctx, url, names, rows)
//	})
//
// Errors that say they are not retryable, either an *errors.AppError with
// Retryable false or a cancelled context, stop the loop immediately.
package resilience
