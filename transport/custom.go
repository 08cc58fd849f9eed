package transport

import (
	"context"

	"github.com/tamzrod/divecomputer/status"
)

// customTransport wraps a caller-supplied Transport implementation,
// per spec.md §9's "Custom IO nesting": stacking a caller-provided IO layer
// beneath a driver, e.g. Bluetooth RFCOMM acting as a serial port, or
// BLE-GATT acting as a packet transport. Setting packetSize > 0 selects
// packet semantics on top of whatever byte-oriented Read/Write the caller's
// implementation provides.
type customTransport struct {
	impl       Transport
	packetSize int
}

// NewCustom adapts impl, an arbitrary caller-supplied Transport, optionally
// truncating each Read/Write to a fixed packetSize (0 disables packet
// framing and simply forwards to impl).
func NewCustom(impl Transport, packetSize int) Transport {
	return &customTransport{impl: impl, packetSize: packetSize}
}

func (t *customTransport) PacketSize() int { return t.packetSize }

func (t *customTransport) Close() status.Status { return t.impl.Close() }

// Read enforces packet framing only when p is larger than one packet: it
// reads at most packetSize bytes (through a scratch buffer), copies them
// into p, and reports status.Timeout because p was not filled. When the
// caller asks for fewer bytes than one packet, framing is approximate: it
// depends on impl itself being packet-aware (as packetTransport is), since
// a plain byte stream has no notion of "the rest of this packet" to
// discard.
func (t *customTransport) Read(ctx context.Context, p []byte) (int, status.Status) {
	if t.packetSize <= 0 {
		return t.impl.Read(ctx, p)
	}

	buf := p
	truncated := len(p) > t.packetSize
	if truncated {
		buf = make([]byte, t.packetSize)
	}

	n, st := t.impl.Read(ctx, buf)
	if truncated {
		want := len(p)
		if want > n {
			want = n
		}
		copy(p[:want], buf[:want])
		if st == status.Success && want < len(p) {
			st = status.Timeout
		}
		return want, st
	}
	return n, st
}

func (t *customTransport) Write(ctx context.Context, p []byte) (int, status.Status) {
	if t.packetSize > 0 && len(p) > t.packetSize {
		p = p[:t.packetSize]
	}
	return t.impl.Write(ctx, p)
}

func (t *customTransport) Purge(direction Direction) status.Status { return t.impl.Purge(direction) }
func (t *customTransport) Available() (int, status.Status)          { return t.impl.Available() }
func (t *customTransport) SetTimeout(ms int) status.Status          { return t.impl.SetTimeout(ms) }
func (t *customTransport) Configure(cfg SerialConfig) status.Status { return t.impl.Configure(cfg) }
func (t *customTransport) SetDTR(on bool) status.Status             { return t.impl.SetDTR(on) }
func (t *customTransport) SetRTS(on bool) status.Status             { return t.impl.SetRTS(on) }
func (t *customTransport) SetHalfDuplex(on bool) status.Status      { return t.impl.SetHalfDuplex(on) }
func (t *customTransport) SetBreak(on bool) status.Status           { return t.impl.SetBreak(on) }
func (t *customTransport) Sleep(ms int)                             { t.impl.Sleep(ms) }
func (t *customTransport) Lines() (Line, status.Status)             { return t.impl.Lines() }
