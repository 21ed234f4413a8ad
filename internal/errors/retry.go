package errors

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig configures retry behavior for outbound static-asset fetches.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// RetryExecutor retries a bounded number of attempts using exponential
// backoff, classifying errors to decide whether a retry is worthwhile.
type RetryExecutor struct {
	config     RetryConfig
	classifier *ErrorClassifier
	logger     *slog.Logger
}

func NewRetryExecutor(config RetryConfig, classifier *ErrorClassifier, logger *slog.Logger) *RetryExecutor {
	return &RetryExecutor{config: config, classifier: classifier, logger: logger}
}

func (re *RetryExecutor) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = re.config.InitialDelay
	eb.MaxInterval = re.config.MaxDelay
	eb.Multiplier = re.config.BackoffFactor
	if !re.config.Jitter {
		eb.RandomizationFactor = 0
	}
	return backoff.WithMaxRetries(eb, uint64(re.config.MaxAttempts-1))
}

// Execute runs fn, retrying on classified-retryable errors up to MaxAttempts.
func (re *RetryExecutor) Execute(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		classified := re.classifier.Classify(err)
		if !classified.Retryable {
			return backoff.Permanent(classified)
		}
		re.logger.Warn("operation failed, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		return classified
	}

	err := backoff.Retry(op, backoff.WithContext(re.newBackOff(), ctx))
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PaperDBError); ok {
		return pe
	}
	return NewFetchError(CodeAssetFetchFailed, "operation failed after retries", err).
		WithOperation(operation)
}
