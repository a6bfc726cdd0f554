package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord indicates a persisted line that cannot be parsed. It aborts the whole load.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnresolvedReference indicates a channel, message or member the platform cannot resolve.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrDeliveryFailure indicates a notification that could not be sent.
	ErrDeliveryFailure = errors.New("delivery failure")
	// ErrWriteConflict indicates a store mutation that could not acquire the store's writer lock.
	ErrWriteConflict = errors.New("write conflict")
	// ErrChannelAlreadyWatched indicates an add-channel request for a registered channel.
	ErrChannelAlreadyWatched = errors.New("channel already watched")
	// ErrScanInFlight indicates a trigger fired while its previous scan was still running.
	ErrScanInFlight = errors.New("scan already in flight")
)

// MalformedRecordError points at the offending line of a store file.
type MalformedRecordError struct {
	File   string
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, ErrMalformedRecord, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
