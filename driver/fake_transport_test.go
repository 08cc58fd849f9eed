package driver

import (
	"context"

	"github.com/tamzrod/divecomputer/status"
	"github.com/tamzrod/divecomputer/transport"
)

// fakeTransport is a scripted, single-stream stand-in for transport.Transport:
// everything written is recorded, and reads are served from a fixed inbound
// byte slice, mirroring the teacher project's fakeClient/fakeEndpointClient
// test doubles.
type fakeTransport struct {
	rx    []byte
	rxPos int

	written []byte

	configures []transport.SerialConfig
	timeouts   []int
	rtsCalls   []bool
	dtrCalls   []bool
	sleeps     []int
	purges     []transport.Direction
}

func (f *fakeTransport) Close() status.Status { return status.Success }

func (f *fakeTransport) Read(ctx context.Context, p []byte) (int, status.Status) {
	if ctx.Err() != nil {
		return 0, status.Cancelled
	}
	avail := len(f.rx) - f.rxPos
	if avail <= 0 {
		return 0, status.Timeout
	}
	n := len(p)
	if n > avail {
		n = avail
	}
	copy(p[:n], f.rx[f.rxPos:f.rxPos+n])
	f.rxPos += n
	if n < len(p) {
		return n, status.Timeout
	}
	return n, status.Success
}

func (f *fakeTransport) Write(ctx context.Context, p []byte) (int, status.Status) {
	if ctx.Err() != nil {
		return 0, status.Cancelled
	}
	f.written = append(f.written, p...)
	return len(p), status.Success
}

func (f *fakeTransport) Purge(direction transport.Direction) status.Status {
	f.purges = append(f.purges, direction)
	return status.Success
}

func (f *fakeTransport) Available() (int, status.Status) {
	return len(f.rx) - f.rxPos, status.Success
}

func (f *fakeTransport) SetTimeout(ms int) status.Status {
	f.timeouts = append(f.timeouts, ms)
	return status.Success
}

func (f *fakeTransport) Configure(cfg transport.SerialConfig) status.Status {
	f.configures = append(f.configures, cfg)
	return status.Success
}

func (f *fakeTransport) SetDTR(on bool) status.Status {
	f.dtrCalls = append(f.dtrCalls, on)
	return status.Success
}

func (f *fakeTransport) SetRTS(on bool) status.Status {
	f.rtsCalls = append(f.rtsCalls, on)
	return status.Success
}

func (f *fakeTransport) SetHalfDuplex(on bool) status.Status { return status.Success }
func (f *fakeTransport) SetBreak(on bool) status.Status      { return status.Success }

func (f *fakeTransport) Sleep(ms int) {
	f.sleeps = append(f.sleeps, ms)
}

func (f *fakeTransport) Lines() (transport.Line, status.Status) { return 0, status.Success }
