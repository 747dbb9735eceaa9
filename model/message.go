package model

import (
	"time"
)

// MessageFile is a candidate message on disk together with its header block.
// Only the header section is kept; the body is never loaded.
type MessageFile struct {
	Path   string
	Header []byte
}

type OutcomeKind string

const (
	OutcomeApplied    OutcomeKind = "applied"
	OutcomeWouldApply OutcomeKind = "would_apply"
	OutcomeSkipped    OutcomeKind = "skipped"
)

// Reason explains why a file was skipped.
type Reason string

const (
	ReasonHeaderNotFound   Reason = "header_not_found"
	ReasonUnparseableDate  Reason = "unparseable_date"
	ReasonIOError          Reason = "io_error"
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonFileNotFound     Reason = "file_not_found"
)

// Outcome is the result of running one file through the pipeline.
type Outcome struct {
	Path string
	Kind OutcomeKind

	// Time is the instant derived from the Date header. Zero for skipped files
	// that never got a parsed date.
	Time     time.Time
	Zone     string
	Strategy string

	Reason Reason
	Err    error
}

// Succeeded reports whether the outcome counts towards the success tally.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeApplied || o.Kind == OutcomeWouldApply
}

func Applied(path string, t time.Time, zone, strategy string) Outcome {
	return Outcome{Path: path, Kind: OutcomeApplied, Time: t, Zone: zone, Strategy: strategy}
}

func WouldApply(path string, t time.Time, zone, strategy string) Outcome {
	return Outcome{Path: path, Kind: OutcomeWouldApply, Time: t, Zone: zone, Strategy: strategy}
}

func Skipped(path string, reason Reason, err error) Outcome {
	return Outcome{Path: path, Kind: OutcomeSkipped, Reason: reason, Err: err}
}
