package main

import "time"

// Batch is one run's worth of work: the contacts, the message and the optional
// attachment. It is built once by the caller and not mutated while a run is in
// flight.
type Batch struct {
	Numbers    []string
	Message    string
	Attachment string
	Variant    BrowserVariant

	// Delay is the caller's inter-contact delay hint. Zero means the
	// configured cooldown window applies unchanged.
	Delay time.Duration
}

type OutcomeStatus string

const (
	StatusSent   OutcomeStatus = "sent"
	StatusFailed OutcomeStatus = "failed"
)

// Outcome is the terminal per-contact record. Outcomes are appended in batch
// order, exactly one per processed contact.
type Outcome struct {
	Number string
	Status OutcomeStatus
	Reason string
}
