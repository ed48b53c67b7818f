package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidAttachment = errors.New("invalid attachment")

// supportedAttachmentExts is the fixed attachment allow-list: images, pdf,
// documents, plain text and archives.
var supportedAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".zip":  true,
}

// InvalidNumberError names the first contact identifier that failed phone
// number validation.
type InvalidNumberError struct {
	Number string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("invalid phone number: %s", e.Number)
}

// validateBatch gates a batch before any browser session is opened. The
// attachment is checked first (existence, then extension), then every number
// must parse as a valid phone number; the check stops at the first bad one.
// Numbers are parsed without a default region, so they must carry an explicit
// country code.
func validateBatch(batch *Batch) error {
	if batch.Attachment != "" {
		if _, err := os.Stat(batch.Attachment); err != nil {
			return fmt.Errorf("%w: file not found: %s", ErrInvalidAttachment, batch.Attachment)
		}
		ext := strings.ToLower(filepath.Ext(batch.Attachment))
		if !supportedAttachmentExts[ext] {
			return fmt.Errorf("%w: unsupported file type %q", ErrInvalidAttachment, ext)
		}
	}

	for _, number := range batch.Numbers {
		parsed, err := phonenumbers.Parse(number, "")
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			return &InvalidNumberError{Number: number}
		}
	}

	return nil
}
