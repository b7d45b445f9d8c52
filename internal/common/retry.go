package common

import (
	"context"
	"time"
)

// Retry runs fn up to attempts times. After the nth failed attempt it sleeps
// baseDelay*n before trying again; the last failure returns immediately. The
// sleep is interrupted when ctx is cancelled.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(baseDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
