// Package divecomputer is the core of a dive-computer communication
// library: device-driver framing, retry, ring-buffer log decoding, and
// fingerprint-based incremental download, independent of any particular
// transport binding or front-end.
package divecomputer

// Dive is one decoded logbook+profile record, delivered newest-first by a
// driver's Foreach. Bytes is owned by the driver's scratch buffer and is
// only valid for the duration of the Consumer call that receives it — copy
// before retaining, per spec.md §5's aliasing contract.
type Dive struct {
	Bytes []byte

	// Fingerprint is the slice of Bytes (by offset+length, not a copy)
	// that uniquely identifies this dive to the device. Passing it back
	// through Driver.SetFingerprint on a later session requests only
	// dives newer than this one.
	Fingerprint []byte
}

// Consumer receives dives newest-first. Returning false stops iteration
// with overall success; partial results already delivered are not
// revoked.
type Consumer func(Dive) bool
