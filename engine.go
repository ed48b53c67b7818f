package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// deliverySession is what the engine needs from a live automation session:
// deliver one message to one number, and release the browser when done.
type deliverySession interface {
	deliver(number, message string) error
	Close()
}

// Engine runs one batch end to end on a background worker: validate, open a
// session, process contacts serially, tear down. The controlling interface
// only ever consumes the event stream; it never touches the session.
type Engine struct {
	cfg     *Config
	logger  *zap.Logger
	events  *reporter
	tracker *SentTracker
	tmpl    *messageTemplate
	limiter *rate.Limiter
	stopped atomic.Bool

	// connect is the session factory; tests swap it for a fake.
	connect func(ctx context.Context, batch *Batch) (deliverySession, error)
}

func NewEngine(cfg *Config, logger *zap.Logger, tracker *SentTracker, tmpl *messageTemplate) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		events:  newReporter(0),
		tracker: tracker,
		tmpl:    tmpl,
	}
	if cfg.Send.MessagesPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(float64(cfg.Send.MessagesPerMinute)/60), 1)
	}
	e.connect = func(ctx context.Context, batch *Batch) (deliverySession, error) {
		sess, err := openSession(ctx, e.cfg, batch.Variant)
		if err != nil {
			return nil, err
		}
		return newWorkflow(sess, batch, e.cfg, e.logger), nil
	}
	return e
}

// Events returns the stream the controlling interface consumes. Closed when
// Run returns.
func (e *Engine) Events() <-chan Event {
	return e.events.Events()
}

// Stop requests cooperative cancellation. The contact in flight still
// completes and is recorded; the next one is never started.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// Run processes the batch and returns the ordered per-contact outcomes for
// whatever prefix of the batch executed. The event channel is closed on
// every exit path.
func (e *Engine) Run(ctx context.Context, batch *Batch) []Outcome {
	defer e.events.close()

	if err := validateBatch(batch); err != nil {
		e.logger.Error("batch validation failed", zap.Error(err))
		e.events.fatal(err)
		return nil
	}

	e.logger.Info("opening browser session",
		zap.Stringer("browser", batch.Variant),
		zap.Int("contacts", len(batch.Numbers)))

	sess, err := e.connect(ctx, batch)
	if err != nil {
		if errors.Is(err, ErrLoginRequired) {
			e.logger.Warn("login challenge detected, aborting batch")
			e.events.loginRequired()
		} else {
			e.logger.Error("failed to open session", zap.Error(err))
			e.events.fatal(err)
		}
		return nil
	}
	defer sess.Close()

	total := len(batch.Numbers)
	outcomes := make([]Outcome, 0, total)

	for i, number := range batch.Numbers {
		if e.stopped.Load() {
			e.logger.Info("stop requested, halting batch",
				zap.Int("processed", len(outcomes)), zap.Int("total", total))
			break
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				break
			}
		}

		message, err := e.messageFor(batch, number)
		if err == nil && e.tracker != nil && e.tracker.AlreadySent(number, message) {
			e.logger.Info("skipping number, already sent", zap.String("number", number))
			e.events.progress(i+1, total, number)
			continue
		}

		if err == nil {
			err = e.processOne(sess, number, message)
		}

		outcome := Outcome{Number: number, Status: StatusSent}
		if err != nil {
			outcome.Status = StatusFailed
			outcome.Reason = err.Error()
			e.logger.Error("delivery failed", zap.String("number", number), zap.Error(err))
		} else {
			e.logger.Info("delivered", zap.String("number", number))
			if e.tracker != nil {
				if terr := e.tracker.MarkSent(number, message); terr != nil {
					e.logger.Warn("failed to record sent number", zap.Error(terr))
				}
			}
		}
		outcomes = append(outcomes, outcome)
		e.events.progress(i+1, total, number)
	}

	e.events.finished()
	return outcomes
}

// processOne isolates a single contact: any panic out of the driver is
// converted into a failed outcome instead of taking the batch down.
func (e *Engine) processOne(sess deliverySession, number, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return sess.deliver(number, message)
}

func (e *Engine) messageFor(batch *Batch, number string) (string, error) {
	if e.tmpl == nil {
		return batch.Message, nil
	}
	return e.tmpl.render(number)
}
