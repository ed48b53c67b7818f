package main

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
)

// SentTracker is a CSV ledger of numbers already delivered, keyed by a hash
// of number and message body. Re-running the same batch skips entries the
// ledger already holds; changing the message makes every number eligible
// again.
type SentTracker struct {
	path string
	sent map[string]bool
}

func NewSentTracker(path string) (*SentTracker, error) {
	tracker := &SentTracker{
		path: path,
		sent: make(map[string]bool),
	}
	if err := tracker.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load sent tracker: %w", err)
		}
	}
	return tracker, nil
}

func sentKey(number, message string) string {
	hash := sha256.Sum256([]byte(number + "|" + message))
	return hex.EncodeToString(hash[:])
}

func (t *SentTracker) load() error {
	file, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read tracker CSV: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	hashIdx := -1
	for i, col := range records[0] {
		if strings.TrimSpace(strings.ToLower(col)) == "hash" {
			hashIdx = i
		}
	}
	if hashIdx == -1 {
		return fmt.Errorf("tracker CSV %s has no 'hash' column", t.path)
	}

	for _, row := range records[1:] {
		if len(row) <= hashIdx {
			continue
		}
		hash := strings.TrimSpace(row[hashIdx])
		if hash != "" {
			t.sent[hash] = true
		}
	}
	return nil
}

func (t *SentTracker) AlreadySent(number, message string) bool {
	return t.sent[sentKey(number, message)]
}

// MarkSent records a delivery in memory and appends it to the ledger file.
func (t *SentTracker) MarkSent(number, message string) error {
	key := sentKey(number, message)
	t.sent[key] = true

	writeHeader := false
	if _, err := os.Stat(t.path); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open tracker CSV: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		if err := writer.Write([]string{"number", "hash", "timestamp"}); err != nil {
			return fmt.Errorf("failed to write tracker header: %w", err)
		}
	}
	record := []string{number, key, time.Now().Format(time.RFC3339)}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write tracker record: %w", err)
	}
	return nil
}

func (t *SentTracker) Count() int {
	return len(t.sent)
}
