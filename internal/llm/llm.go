// Package llm defines the text-generation collaborator and its providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/metrics"
)

// ErrConnectivity is returned when the generator stays unreachable after
// every retry.
var ErrConnectivity = errors.New("text generator unreachable")

// Request is one generation call. Purpose names the prompt for logs and is
// not sent to the provider.
type Request struct {
	Purpose      string
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// CheckAvailability is a best-effort, short-timeout probe.
	CheckAvailability(ctx context.Context) bool
}

// Default retry policy.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// Retrying wraps a Generator with a bounded number of attempts and a fixed
// delay between them. Exhausting the attempts yields ErrConnectivity.
type Retrying struct {
	next       Generator
	maxRetries int
	delay      time.Duration
	logger     *zap.Logger
	metrics    *metrics.Collector
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. maxRetries <= 0 selects DefaultMaxRetries.
func NewRetrying(next Generator, maxRetries int, delay time.Duration, logger *zap.Logger, m *metrics.Collector) *Retrying {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if delay < 0 {
		delay = DefaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		next:       next,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger,
		metrics:    m,
		sleep:      sleepCtx,
	}
}

// Generate implements Generator.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		r.logger.Debug("sending generation request",
			zap.String("purpose", req.Purpose), zap.Int("attempt", attempt))
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			r.logger.Debug("generation response received", zap.Int("chars", len(out)))
			r.metrics.LLMRequest("ok", time.Since(start))
			return out, nil
		}
		lastErr = err
		r.logger.Warn("generation attempt failed",
			zap.String("purpose", req.Purpose), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < r.maxRetries {
			if err := r.sleep(ctx, r.delay); err != nil {
				lastErr = err
				break
			}
		}
	}
	r.metrics.LLMRequest("error", time.Since(start))
	r.logger.Error("text generator unreachable after retries",
		zap.Int("attempts", r.maxRetries), zap.Error(lastErr))
	return "", fmt.Errorf("%w after %d attempts: %v", ErrConnectivity, r.maxRetries, lastErr)
}

// CheckAvailability implements Generator.
func (r *Retrying) CheckAvailability(ctx context.Context) bool {
	ok := r.next.CheckAvailability(ctx)
	r.logger.Info("availability probe", zap.Bool("available", ok))
	return ok
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
