package main

import "time"

// retrier re-runs flaky driver operations with exponential backoff: 1s, 2s,
// 4s between attempts, no jitter. The last error is returned unchanged so the
// caller's failure reason survives verbatim. UI-readiness waits are not
// retried through this; those are bounded waits with their own timeouts.
type retrier struct {
	attempts int
	sleep    func(time.Duration)
}

func newRetrier(attempts int) retrier {
	if attempts < 1 {
		attempts = 1
	}
	return retrier{attempts: attempts, sleep: time.Sleep}
}

func (r retrier) do(op func() error) error {
	delay := time.Second
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			r.sleep(delay)
			delay *= 2
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
