package download

import (
	"context"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
)

// RetryPolicy retries an operation a fixed number of times with a constant
// pause between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = defaultRetryDelay
	}
	return p
}

// Run invokes fn until it returns nil or the attempt budget is spent,
// pausing Delay between attempts. It reports how many attempts ran and the
// last error. A context that ends during the pause stops the policy with
// ctx.Err(). A first-attempt success never sleeps.
func (p RetryPolicy) Run(ctx context.Context, fn func(attempt int) error) (int, error) {
	p = p.withDefaults()

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt >= p.MaxAttempts {
			return attempt, err
		}

		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}
}
