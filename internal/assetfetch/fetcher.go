// Package assetfetch wraps the outbound HTTP calls the API and MCP
// surfaces make to the static asset host when proxying summary/source
// content, sharing one retry + circuit breaker policy between both.
package assetfetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	pdberrors "scifind-backend/internal/errors"
)

// Fetcher fetches static-asset bytes over HTTP, bounded by a timeout and
// guarded by a circuit breaker + bounded retry, shaped after the
// provider health/circuit pattern used elsewhere in this codebase.
type Fetcher struct {
	client  *http.Client
	cb      *pdberrors.CircuitBreaker
	retry   *pdberrors.RetryExecutor
	timeout time.Duration
}

// Config configures a Fetcher. Zero values fall back to sane defaults:
// a 10s timeout, 3 retry attempts, and a 5-failure circuit breaker.
type Config struct {
	Timeout          time.Duration
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	BackoffFactor    float64
	FailureThreshold int
	ResetTimeout     time.Duration
}

func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}

	cb := pdberrors.NewCircuitBreaker(pdberrors.CircuitBreakerConfig{
		Name:             "static_asset_fetch",
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: 2,
		Timeout:          cfg.ResetTimeout,
		SlidingWindow:    time.Minute,
	}, logger)

	retry := pdberrors.NewRetryExecutor(pdberrors.RetryConfig{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		BackoffFactor: cfg.BackoffFactor,
		Jitter:        true,
	}, pdberrors.NewErrorClassifier(), logger)

	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		retry:   retry,
		timeout: cfg.Timeout,
	}
}

// Fetch GETs url, returning the response body or a PaperDBError classified
// as a fetch/timeout failure on non-2xx status or transport error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body []byte
	err := f.cb.Execute(func() error {
		return f.retry.Execute(ctx, "asset_fetch", func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "building request failed", err)
			}
			resp, err := f.client.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return pdberrors.NewTimeoutError("asset_fetch", f.timeout)
				}
				return pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "request failed", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return pdberrors.NewNotFoundError(pdberrors.CodeAssetMissing, "static asset not found", "")
			}
			if resp.StatusCode >= 300 {
				return pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "unexpected status from static host", nil)
			}
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return pdberrors.NewFetchError(pdberrors.CodeAssetFetchFailed, "reading response body failed", err)
			}
			body = data
			return nil
		})
	})
	if err != nil {
		if pe, ok := err.(*pdberrors.PaperDBError); ok {
			return nil, pe
		}
		return nil, pdberrors.NewCircuitBreakerError("static_asset_fetch")
	}
	return body, nil
}
