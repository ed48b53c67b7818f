package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Numbers that survive real phone validation; the engine validates before it
// connects.
var validNumbers = []string{"+14155552671", "+16502530000", "+442071838750"}

type fakeSession struct {
	deliverFn func(number, message string) error
	delivered []string
	closed    int
}

func (f *fakeSession) deliver(number, message string) error {
	f.delivered = append(f.delivered, number)
	if f.deliverFn != nil {
		return f.deliverFn(number, message)
	}
	return nil
}

func (f *fakeSession) Close() {
	f.closed++
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	require.NoError(t, cfg.applyDefaults())
	return cfg
}

func newTestEngine(t *testing.T, sess *fakeSession) *Engine {
	t.Helper()
	e := NewEngine(testConfig(t), zap.NewNop(), nil, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		return sess, nil
	}
	return e
}

func drainEvents(e *Engine) []Event {
	var events []Event
	for ev := range e.Events() {
		events = append(events, ev)
	}
	return events
}

func TestEngineRecordsOutcomesInOrder(t *testing.T) {
	deliveryErr := errors.New("chat did not load")
	sess := &fakeSession{
		deliverFn: func(number, message string) error {
			if number == validNumbers[1] {
				return deliveryErr
			}
			return nil
		},
	}
	e := newTestEngine(t, sess)

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	require.Len(t, outcomes, 3)
	assert.Equal(t, validNumbers[0], outcomes[0].Number)
	assert.Equal(t, validNumbers[1], outcomes[1].Number)
	assert.Equal(t, validNumbers[2], outcomes[2].Number)
	assert.Equal(t, StatusSent, outcomes[0].Status)
	assert.Equal(t, StatusFailed, outcomes[1].Status)
	assert.Equal(t, deliveryErr.Error(), outcomes[1].Reason)
	assert.Equal(t, StatusSent, outcomes[2].Status)
	assert.Equal(t, 1, sess.closed)

	events := drainEvents(e)
	var processed []int
	var percents []int
	finished := false
	for _, ev := range events {
		switch ev.Kind {
		case EventProgress:
			processed = append(processed, ev.Sent)
		case EventPercent:
			percents = append(percents, ev.Percent)
		case EventFinished:
			finished = true
		}
	}
	assert.Equal(t, []int{1, 2, 3}, processed)
	assert.Equal(t, []int{33, 66, 100}, percents)
	assert.True(t, finished)
}

func TestEngineValidationBlocksSession(t *testing.T) {
	connectCalled := false
	e := NewEngine(testConfig(t), zap.NewNop(), nil, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		connectCalled = true
		return &fakeSession{}, nil
	}

	outcomes := e.Run(context.Background(), &Batch{
		Numbers: []string{validNumbers[0], "not-a-number"},
		Message: "hi",
	})

	assert.Nil(t, outcomes)
	assert.False(t, connectCalled)

	events := drainEvents(e)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	var invalidErr *InvalidNumberError
	require.ErrorAs(t, events[0].Err, &invalidErr)
	assert.Equal(t, "not-a-number", invalidErr.Number)
}

func TestEngineInvalidAttachmentBlocksSession(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "report.exe")
	require.NoError(t, os.WriteFile(exe, []byte("x"), 0o644))

	connectCalled := false
	e := NewEngine(testConfig(t), zap.NewNop(), nil, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		connectCalled = true
		return &fakeSession{}, nil
	}

	outcomes := e.Run(context.Background(), &Batch{
		Numbers:    []string{validNumbers[0]},
		Message:    "hi",
		Attachment: exe,
	})

	assert.Nil(t, outcomes)
	assert.False(t, connectCalled)

	events := drainEvents(e)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, ErrInvalidAttachment)
}

func TestEngineStopBetweenContacts(t *testing.T) {
	var e *Engine
	sess := &fakeSession{
		deliverFn: func(number, message string) error {
			// Stop lands while this contact is in flight; it must still
			// complete and be recorded.
			e.Stop()
			return nil
		},
	}
	e = newTestEngine(t, sess)

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSent, outcomes[0].Status)
	assert.Equal(t, []string{validNumbers[0]}, sess.delivered)
	assert.Equal(t, 1, sess.closed)
}

func TestEngineLoginRequiredAbortsBatch(t *testing.T) {
	e := NewEngine(testConfig(t), zap.NewNop(), nil, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		return nil, ErrLoginRequired
	}

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	assert.Empty(t, outcomes)
	events := drainEvents(e)
	require.Len(t, events, 1)
	assert.Equal(t, EventLoginRequired, events[0].Kind)
}

func TestEngineSessionErrorIsFatal(t *testing.T) {
	bootErr := errors.New("browser failed to start")
	e := NewEngine(testConfig(t), zap.NewNop(), nil, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		return nil, bootErr
	}

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	assert.Empty(t, outcomes)
	events := drainEvents(e)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, bootErr)
}

func TestEnginePanicIsIsolatedToContact(t *testing.T) {
	sess := &fakeSession{
		deliverFn: func(number, message string) error {
			if number == validNumbers[0] {
				panic("driver blew up")
			}
			return nil
		},
	}
	e := newTestEngine(t, sess)

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "driver blew up")
	assert.Equal(t, StatusSent, outcomes[1].Status)
	assert.Equal(t, StatusSent, outcomes[2].Status)
}

func TestEngineSkipsAlreadySentNumbers(t *testing.T) {
	trackerPath := filepath.Join(t.TempDir(), "sent.csv")
	tracker, err := NewSentTracker(trackerPath)
	require.NoError(t, err)
	require.NoError(t, tracker.MarkSent(validNumbers[1], "hi"))

	sess := &fakeSession{}
	e := NewEngine(testConfig(t), zap.NewNop(), tracker, nil)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		return sess, nil
	}

	outcomes := e.Run(context.Background(), &Batch{Numbers: validNumbers, Message: "hi"})

	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{validNumbers[0], validNumbers[2]}, sess.delivered)
	assert.True(t, tracker.AlreadySent(validNumbers[0], "hi"))
}

func TestEngineRendersTemplatePerContact(t *testing.T) {
	tmpl, err := newMessageTemplate("hello {{.Number}}")
	require.NoError(t, err)

	var messages []string
	sess := &fakeSession{
		deliverFn: func(number, message string) error {
			messages = append(messages, message)
			return nil
		},
	}
	e := NewEngine(testConfig(t), zap.NewNop(), nil, tmpl)
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		return sess, nil
	}

	outcomes := e.Run(context.Background(), &Batch{
		Numbers: validNumbers[:2],
		Message: "hello {{.Number}}",
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{
		"hello " + validNumbers[0],
		"hello " + validNumbers[1],
	}, messages)
}
