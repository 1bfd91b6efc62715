// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// Backoff retries an operation, doubling the wait after each failure.
type Backoff struct {
	Attempts  int           // Total attempts, including the first
	BaseDelay time.Duration // Wait after the first failure
	Logger    *slog.Logger  // Defaults to slog.Default()
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	return b.BaseDelay << (attempt - 1)
}

// Retry runs op until it succeeds, the attempts are used up or ctx ends.
// It returns the last error from op, or the context's error if ctx ended first.
func (b Backoff) Retry(ctx context.Context, op func() error) error {
	if b.Attempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = op(); err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt == b.Attempts {
			logger.Debug("giving up", "attempts", attempt, "err", err)
			return err
		}

		delay := b.Delay(attempt)
		logger.Debug("attempt failed, retrying", "attempt", attempt, "max_attempts", b.Attempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryWithBackoff retries op up to maxAttempts times, waiting
// baseDelay << (attempt-1) between attempts.
func RetryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration) error {
	return Backoff{Attempts: maxAttempts, BaseDelay: baseDelay}.Retry(ctx, op)
}
