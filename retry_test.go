package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrierSucceedsAfterTransientFailures(t *testing.T) {
	var sleeps []time.Duration
	r := newRetrier(3)
	r.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	calls := 0
	err := r.do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestRetrierReturnsLastErrorVerbatim(t *testing.T) {
	var sleeps []time.Duration
	r := newRetrier(3)
	r.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	lastErr := errors.New("navigation failed on attempt 3")
	calls := 0
	err := r.do(func() error {
		calls++
		if calls == 3 {
			return lastErr
		}
		return errors.New("earlier failure")
	})

	assert.Same(t, lastErr, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestRetrierNoBackoffOnImmediateSuccess(t *testing.T) {
	r := newRetrier(3)
	r.sleep = func(time.Duration) { t.Fatal("sleep should not be called") }

	calls := 0
	err := r.do(func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierClampsAttemptCount(t *testing.T) {
	r := newRetrier(0)
	calls := 0
	err := r.do(func() error {
		calls++
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
