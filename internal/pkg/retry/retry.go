package retry

import (
	"fmt"
	"time"
)

// Connect calls dial up to attempts times, sleeping delay between failures,
// and returns the first successful result. what names the dependency in the
// final error.
func Connect[T any](what string, attempts int, delay time.Duration, dial func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err = dial()
		if err == nil {
			return result, nil
		}

		if i < attempts-1 {
			time.Sleep(delay)
		}
	}

	var zero T
	return zero, fmt.Errorf("failed to connect to %s after %d retries: %w", what, attempts, err)
}
