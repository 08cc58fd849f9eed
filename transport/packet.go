package transport

import (
	"context"
	"time"

	"github.com/tamzrod/divecomputer/status"
)

// PacketConn is the caller-supplied primitive behind the Packet variant: a
// BLE-GATT characteristic, or anything else that only ever moves one
// discrete frame at a time. Concrete BLE bindings are out of scope for this
// core; no BLE library appears anywhere in the retrieved corpus to wire in
// its place.
type PacketConn interface {
	ReadPacket(ctx context.Context) ([]byte, status.Status)
	WritePacket(ctx context.Context, p []byte) status.Status
	Close() status.Status
}

// packetTransport adapts a PacketConn to the byte-stream shaped Transport
// interface, per spec.md §4.1: read(n) returns exactly one packet if
// n >= packet_size, else the first n bytes of that packet, discarding the
// remainder; writes are framed identically.
type packetTransport struct {
	conn       PacketConn
	packetSize int
}

// NewPacket wraps conn, fixing the maximum single-read/write unit at
// packetSize.
func NewPacket(conn PacketConn, packetSize int) Transport {
	return &packetTransport{conn: conn, packetSize: packetSize}
}

func (t *packetTransport) PacketSize() int { return t.packetSize }

func (t *packetTransport) Close() status.Status { return t.conn.Close() }

func (t *packetTransport) Read(ctx context.Context, p []byte) (int, status.Status) {
	if ctx.Err() != nil {
		return 0, status.Cancelled
	}

	packet, st := t.conn.ReadPacket(ctx)
	if st != status.Success {
		return 0, st
	}

	n := len(p)
	if n > len(packet) {
		n = len(packet)
	}
	copy(p[:n], packet[:n])

	if n < len(p) {
		return n, status.Timeout
	}
	return n, status.Success
}

func (t *packetTransport) Write(ctx context.Context, p []byte) (int, status.Status) {
	if ctx.Err() != nil {
		return 0, status.Cancelled
	}

	frame := p
	if len(frame) > t.packetSize {
		frame = frame[:t.packetSize]
	}
	if st := t.conn.WritePacket(ctx, frame); st != status.Success {
		return 0, st
	}
	return len(frame), status.Success
}

func (t *packetTransport) Purge(Direction) status.Status { return status.Success }

func (t *packetTransport) Available() (int, status.Status) { return 0, status.Success }

func (t *packetTransport) SetTimeout(int) status.Status { return status.Success }

func (t *packetTransport) Configure(SerialConfig) status.Status { return status.Success }
func (t *packetTransport) SetDTR(bool) status.Status             { return status.Success }
func (t *packetTransport) SetRTS(bool) status.Status             { return status.Success }
func (t *packetTransport) SetHalfDuplex(bool) status.Status      { return status.Success }
func (t *packetTransport) SetBreak(bool) status.Status           { return status.Success }
func (t *packetTransport) Sleep(ms int)                          { time.Sleep(time.Duration(ms) * time.Millisecond) }
func (t *packetTransport) Lines() (Line, status.Status)          { return 0, status.Success }
