package main

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const overlayProbeWait = 3 * time.Second

// knownOverlays are the transient interstitials WhatsApp Web is known to
// throw up at unpredictable times. Each pairs a presence probe with the
// control that dismisses it.
var knownOverlays = []struct {
	name       string
	probeSel   string
	dismissSel string
}{
	{
		name:       "battery notice",
		probeSel:   `//div[contains(text(), "Your computer is")]`,
		dismissSel: `//div[contains(text(), "Your computer is")]/following-sibling::div`,
	},
	{
		name:       "modal dialog",
		probeSel:   `//div[@role="dialog"]`,
		dismissSel: `//div[@role="dialog"]//button[@aria-label="Close"]`,
	},
}

// dismissKnownOverlays probes each known overlay with a short bounded wait and
// clicks its dismiss control when found. Best effort: absence is the common
// case and nothing here ever fails the caller.
func dismissKnownOverlays(ctx context.Context, logger *zap.Logger) {
	for _, overlay := range knownOverlays {
		if probeAndDismiss(ctx, overlay.probeSel, overlay.dismissSel) {
			logger.Debug("dismissed overlay", zap.String("overlay", overlay.name))
		}
	}
}

// probeAndDismiss reports whether the overlay was found. A found overlay whose
// dismiss control cannot be clicked still counts as found.
func probeAndDismiss(ctx context.Context, probeSel, dismissSel string) bool {
	probeCtx, probeCancel := context.WithTimeout(ctx, overlayProbeWait)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.WaitReady(probeSel, chromedp.BySearch)); err != nil {
		return false
	}

	clickCtx, clickCancel := context.WithTimeout(ctx, overlayProbeWait)
	defer clickCancel()
	_ = chromedp.Run(clickCtx,
		chromedp.Click(dismissSel, chromedp.BySearch),
		chromedp.Sleep(time.Second),
	)
	return true
}
