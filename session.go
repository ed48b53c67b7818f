package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const whatsappURL = "https://web.whatsapp.com"

// ErrLoginRequired means the landing page presented the QR login challenge.
// Retrying cannot fix an unauthenticated session, so the batch is aborted and
// the user has to link the device manually first.
var ErrLoginRequired = errors.New("login required: scan the QR code in a non-automated run first")

const (
	qrCodeSelector   = `//div[@data-testid="qrcode"]`
	sidePaneSelector = `//div[@id='side']`
)

// Session owns one live browser for the duration of one batch. It is created
// by openSession and must be released through Close, which is safe to call
// more than once.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// openSession launches the browser for the given variant, navigates it to
// WhatsApp Web and waits until the chat list pane is up. On every error path
// the browser process is torn down before returning.
func openSession(parent context.Context, cfg *Config, variant BrowserVariant) (*Session, error) {
	execPath, err := variant.executable(cfg)
	if err != nil {
		return nil, err
	}

	if variant.sharesProfile() {
		if err := os.MkdirAll(cfg.Browser.ProfileDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, variant.allocatorOptions(cfg, execPath)...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{ctx: ctx, cancel: cancel, allocCancel: allocCancel}

	// Initial navigation goes through the retry policy; this is where
	// network-level flakiness shows up most.
	r := newRetrier(cfg.Send.RetryAttempts)
	err = r.do(func() error {
		return chromedp.Run(s.ctx, chromedp.Navigate(whatsappURL))
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open WhatsApp Web: %w", err)
	}

	// Fixed viewport for layout determinism; selectors below assume the
	// desktop layout.
	if err := chromedp.Run(s.ctx, chromedp.EmulateViewport(1440, 900)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if s.loginChallengePresent(time.Duration(cfg.Browser.LoginProbeSeconds) * time.Second) {
		s.Close()
		return nil, ErrLoginRequired
	}

	readyCtx, readyCancel := context.WithTimeout(s.ctx, time.Duration(cfg.Browser.ReadyTimeoutSeconds)*time.Second)
	defer readyCancel()
	if err := chromedp.Run(readyCtx, chromedp.WaitVisible(sidePaneSelector, chromedp.BySearch)); err != nil {
		s.Close()
		return nil, fmt.Errorf("WhatsApp Web did not load: %w", err)
	}

	return s, nil
}

// loginChallengePresent probes for the QR code within a bounded wait. Not
// finding it within the window means the persisted profile is already logged
// in.
func (s *Session) loginChallengePresent(wait time.Duration) bool {
	probeCtx, probeCancel := context.WithTimeout(s.ctx, wait)
	defer probeCancel()
	err := chromedp.Run(probeCtx, chromedp.WaitVisible(qrCodeSelector, chromedp.BySearch))
	return err == nil
}

// Close terminates the browser process. Idempotent: later calls are no-ops.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
}
