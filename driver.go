package divecomputer

import (
	"context"

	"github.com/tamzrod/divecomputer/status"
)

// Driver is the public contract both driver families implement: open a
// transport, walk its dive log, close it. Concrete implementations live in
// package driver (driver.NewStreamDriver, driver.NewEnumDriver).
type Driver interface {
	// SetFingerprint restricts a later Foreach to dives newer than the one
	// identified by fp. An empty fp clears the restriction. Returns
	// status.InvalidArgs if fp's length doesn't match the driver's
	// fingerprint length.
	SetFingerprint(fp []byte) status.Status

	// Foreach downloads the device's dive log and delivers each dive,
	// newest first, to consumer. Events fire synchronously on the calling
	// goroutine via the sink passed at construction. Cancelling ctx aborts
	// at the next suspension boundary with status.Cancelled.
	Foreach(ctx context.Context, consumer Consumer) status.Status

	// Close releases the underlying transport. Idempotent.
	Close() status.Status
}
