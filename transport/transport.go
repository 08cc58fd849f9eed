// Package transport abstracts the byte-stream and packet I/O every driver
// family depends on. The core never opens a serial port, discovers an IrDA
// peer, or binds a socket itself; it is handed a Transport (and, for
// discovery-based drivers, a DeviceIterator) by the caller and only ever
// programs against these interfaces.
package transport

import (
	"context"

	"github.com/tamzrod/divecomputer/status"
)

// Transport is the full capability set described in spec.md §4.1. Variants
// that don't support a given capability implement it as a documented no-op
// returning status.Success, matching how the original C vtable leaves
// unsupported slots NULL and dc_serial dispatch treats a NULL slot as a
// successful no-op.
type Transport interface {
	// Close releases the underlying resource. Idempotent: closing an
	// already-closed Transport returns status.Success.
	Close() status.Status

	// Read blocks up to the configured timeout, returning status.Success
	// only when len(p) bytes were read, status.Timeout with a short count
	// on deadline, or status.IO on an unrecoverable error. It also returns
	// status.Cancelled promptly if ctx is done.
	Read(ctx context.Context, p []byte) (int, status.Status)

	// Write behaves like Read but for output; partial writes continue
	// until all bytes are sent or an error occurs. Transports in packet
	// mode (see PacketSized) send at most one packet per call and report
	// the number of bytes that packet carried.
	Write(ctx context.Context, p []byte) (int, status.Status)

	// Purge drops buffered bytes in the given direction(s).
	Purge(direction Direction) status.Status

	// Available reports the number of bytes readable without blocking.
	Available() (int, status.Status)

	// SetTimeout sets the per-read deadline: negative blocks indefinitely,
	// zero polls without blocking, positive is a deadline in milliseconds.
	SetTimeout(ms int) status.Status

	// Configure sets the serial line parameters. A no-op returning
	// status.Success on transports without the concept.
	Configure(cfg SerialConfig) status.Status

	SetDTR(on bool) status.Status
	SetRTS(on bool) status.Status
	SetHalfDuplex(on bool) status.Status
	SetBreak(on bool) status.Status

	// Sleep cooperatively yields for at least ms milliseconds.
	Sleep(ms int)

	// Lines reports the currently asserted modem lines; 0 where the
	// concept doesn't apply.
	Lines() (Line, status.Status)
}

// PacketSized is implemented by transports operating in fixed-size packet
// mode (the Packet variant, and a Custom variant configured with a
// packet_size). Drivers that need to know the framing granularity — for
// example to size a single bulk-transfer chunk — type-assert for it.
type PacketSized interface {
	PacketSize() int
}

// DeviceInfo is one entry produced by a DeviceIterator: the enumeration
// driver's discovery result before a Transport has been opened.
type DeviceInfo struct {
	Name    string
	Address string
}

// DeviceIterator is the caller-supplied discovery mechanism the
// enumeration-family driver's Open uses. Concrete OS-level discovery (IrDA
// peer enumeration, BLE scanning, ...) is out of scope for this core; the
// caller provides one implementation per platform.
type DeviceIterator interface {
	// Next returns the next candidate, or status.Done once exhausted.
	Next(ctx context.Context) (DeviceInfo, status.Status)
}
