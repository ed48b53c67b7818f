package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	numbersPath := flag.String("numbers", "numbers.txt", "newline-delimited phone numbers file")
	message := flag.String("message", "", "message body to send")
	messageFile := flag.String("message-file", "", "file holding the message body (overrides -message)")
	attachment := flag.String("attach", "", "optional attachment path")
	browserFlag := flag.String("browser", "", "browser variant override: chrome, brave, edge, firefox")
	delay := flag.Duration("delay", 0, "inter-contact delay hint, e.g. 3s")
	useTemplate := flag.Bool("template", false, "treat the message body as a template ({{.Number}} available)")
	dryRun := flag.Bool("dry-run", false, "validate and render without opening a browser")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *browserFlag != "" {
		config.Browser.Variant = *browserFlag
	}
	variant, err := ParseBrowserVariant(config.Browser.Variant)
	if err != nil {
		logger.Fatal("invalid browser variant", zap.Error(err))
	}

	body := *message
	if *messageFile != "" {
		data, err := os.ReadFile(*messageFile)
		if err != nil {
			logger.Fatal("failed to read message file", zap.Error(err))
		}
		body = string(data)
	}
	if body == "" {
		logger.Fatal("no message body: pass -message or -message-file")
	}

	numbers, err := loadNumbers(*numbersPath)
	if err != nil {
		logger.Fatal("failed to load numbers", zap.Error(err))
	}
	logger.Info("loaded numbers", zap.Int("count", len(numbers)))

	batch := &Batch{
		Numbers:    numbers,
		Message:    body,
		Attachment: *attachment,
		Variant:    variant,
		Delay:      *delay,
	}

	var tmpl *messageTemplate
	if *useTemplate {
		tmpl, err = newMessageTemplate(body)
		if err != nil {
			logger.Fatal("bad message template", zap.Error(err))
		}
	}

	var tracker *SentTracker
	if config.Tracker.Enabled {
		tracker, err = NewSentTracker(config.Tracker.Path)
		if err != nil {
			logger.Fatal("failed to open sent tracker", zap.Error(err))
		}
		logger.Info("sent tracker loaded", zap.Int("previously_sent", tracker.Count()))
	}

	if *dryRun {
		if err := runDry(batch, tmpl, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	engine := NewEngine(config, logger, tracker, tmpl)

	// Ctrl-C requests a cooperative stop: the contact in flight finishes,
	// the next one never starts. A second Ctrl-C kills the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("stop requested, finishing current contact")
		engine.Stop()
		signal.Stop(sigCh)
	}()

	done := make(chan []Outcome, 1)
	start := time.Now()
	go func() {
		done <- engine.Run(context.Background(), batch)
	}()

	var fatal error
	var loginNeeded bool
	for ev := range engine.Events() {
		switch ev.Kind {
		case EventProgress:
			logger.Info("progress",
				zap.Int("processed", ev.Sent),
				zap.Int("total", ev.Total),
				zap.String("current", ev.Current))
		case EventPercent:
			logger.Info("completion", zap.Int("percent", ev.Percent))
		case EventLoginRequired:
			loginNeeded = true
		case EventError:
			fatal = ev.Err
		case EventFinished:
		}
	}
	outcomes := <-done

	if loginNeeded {
		logger.Error("not logged in: run once without -headless and scan the QR code")
		os.Exit(1)
	}
	if fatal != nil {
		logger.Error("batch aborted", zap.Error(fatal))
		os.Exit(1)
	}

	failed := summarize(logger, outcomes, len(numbers), time.Since(start))
	if failed > 0 {
		os.Exit(1)
	}
}

func runDry(batch *Batch, tmpl *messageTemplate, logger *zap.Logger) error {
	if err := validateBatch(batch); err != nil {
		logger.Error("validation failed", zap.Error(err))
		return err
	}
	for _, number := range batch.Numbers {
		body := batch.Message
		if tmpl != nil {
			rendered, err := tmpl.render(number)
			if err != nil {
				logger.Error("template render failed", zap.String("number", number), zap.Error(err))
				return err
			}
			body = rendered
		}
		logger.Info("dry run: would send", zap.String("number", number), zap.String("message", body))
	}
	logger.Info("dry run complete", zap.Int("contacts", len(batch.Numbers)))
	return nil
}

func summarize(logger *zap.Logger, outcomes []Outcome, total int, elapsed time.Duration) int {
	sent, failed := 0, 0
	for _, outcome := range outcomes {
		if outcome.Status == StatusSent {
			sent++
		} else {
			failed++
		}
	}

	logger.Info("batch summary",
		zap.Int("total", total),
		zap.Int("processed", len(outcomes)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed))

	for _, outcome := range outcomes {
		if outcome.Status == StatusFailed {
			logger.Warn("failed contact",
				zap.String("number", outcome.Number),
				zap.String("reason", outcome.Reason))
		}
	}
	return failed
}
