package driver

import (
	"context"
	"time"

	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/ringbuffer"
	"github.com/tamzrod/divecomputer/status"
	"github.com/tamzrod/divecomputer/transport"
)

const (
	enumFingerprintLen = 4
	enumMinChunk       = 32
	enumHeaderSize     = 13 // model(1) + serial(4) + clock(4) + length(4)
)

var (
	enumHandshakeA     = []byte{0x1B}
	enumHandshakeAResp = []byte{0x01}
	enumHandshakeB     = []byte{0x1C, 0x10, 0x27, 0x00, 0x00}
	enumHandshakeBResp = []byte{0x01}
)

// OpenTransport is called once a candidate device has passed the
// allow-list filter, to bind an actual Transport at address. Concrete
// IrDA/BLE binding is out of scope for this core (spec.md §1); the caller
// supplies this the same way it supplies the DeviceIterator.
type OpenTransport func(ctx context.Context, address string) (transport.Transport, status.Status)

// EnumDriver is the enumeration-family driver, grounded on the discovery
// and binary-handshake protocol represented by uwatec_smart.c: an
// IrDA-style device iterator filtered against a built-in allow-list, a
// two-step handshake, then a length-prefixed bulk transfer decoded by the
// self-describing ring buffer.
type EnumDriver struct {
	port        transport.Transport
	fingerprint []byte
	sink        divecomputer.EventSink
	logger      divecomputer.Logger
}

// NewEnumDriver enumerates candidates from it, opens the transport at the
// first whose advertised name matches the built-in allow-list, and
// performs the binary handshake, per spec.md §4.5 "Open".
func NewEnumDriver(ctx context.Context, it transport.DeviceIterator, open OpenTransport, sink divecomputer.EventSink, logger divecomputer.Logger) (*EnumDriver, status.Status) {
	if sink == nil {
		sink = divecomputer.NopSink{}
	}

	var chosen *transport.DeviceInfo
	for {
		info, st := it.Next(ctx)
		if st == status.Done {
			break
		}
		if st != status.Success {
			return nil, st
		}
		if matchesAllowlist(info.Name, enumIrdaAllowlist) {
			chosen = &info
			break
		}
	}
	if chosen == nil {
		return nil, status.NoDevice
	}

	port, st := open(ctx, chosen.Address)
	if st != status.Success {
		return nil, st
	}

	d := &EnumDriver{port: port, sink: sink, logger: logger}
	if st := d.handshake(ctx); st != status.Success {
		port.Close()
		return nil, st
	}
	return d, status.Success
}

func (d *EnumDriver) handshake(ctx context.Context) status.Status {
	if st := d.writeExact(ctx, enumHandshakeA); st != status.Success {
		return st
	}
	resp, st := d.readExact(ctx, len(enumHandshakeAResp))
	if st != status.Success {
		return st
	}
	if !bytesEqual(resp, enumHandshakeAResp) {
		return status.Protocol
	}

	if st := d.writeExact(ctx, enumHandshakeB); st != status.Success {
		return st
	}
	resp, st = d.readExact(ctx, len(enumHandshakeBResp))
	if st != status.Success {
		return st
	}
	if !bytesEqual(resp, enumHandshakeBResp) {
		return status.Protocol
	}
	return status.Success
}

func (d *EnumDriver) writeExact(ctx context.Context, p []byte) status.Status {
	written := 0
	for written < len(p) {
		n, st := d.port.Write(ctx, p[written:])
		written += n
		if st != status.Success {
			return st
		}
	}
	return status.Success
}

func (d *EnumDriver) readExact(ctx context.Context, n int) ([]byte, status.Status) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		got, st := d.port.Read(ctx, buf[read:])
		read += got
		if st != status.Success {
			return nil, st
		}
	}
	return buf, status.Success
}

// SetFingerprint stores fp, per spec.md §4.5: empty clears it, any other
// length than 4 (a little-endian device timestamp) is rejected.
func (d *EnumDriver) SetFingerprint(fp []byte) status.Status {
	if len(fp) != 0 && len(fp) != enumFingerprintLen {
		return status.InvalidArgs
	}
	d.fingerprint = append([]byte(nil), fp...)
	return status.Success
}

func (d *EnumDriver) Close() status.Status {
	return d.port.Close()
}

func (d *EnumDriver) command(ctx context.Context, op byte, ts [4]byte, respLen int) ([]byte, status.Status) {
	cmd := []byte{op, ts[0], ts[1], ts[2], ts[3], 0x10, 0x27, 0x00, 0x00}
	if st := d.writeExact(ctx, cmd); st != status.Success {
		return nil, st
	}
	return d.readExact(ctx, respLen)
}

// dump implements spec.md §4.5 "dump(buffer)".
func (d *EnumDriver) dump(ctx context.Context) ([]byte, status.Status) {
	modelResp, st := d.readExactCmd(ctx, []byte{0x10}, 1)
	if st != status.Success {
		return nil, st
	}
	serialResp, st := d.readExactCmd(ctx, []byte{0x14}, 4)
	if st != status.Success {
		return nil, st
	}
	clockResp, st := d.readExactCmd(ctx, []byte{0x1A}, 4)
	if st != status.Success {
		return nil, st
	}
	sysTime := time.Now().Unix()
	devTime := int64(framing.U32LE(clockResp))

	d.sink.OnProgress(divecomputer.ProgressEvent{Current: 0, Maximum: enumHeaderSize})
	d.sink.OnClock(divecomputer.ClockEvent{SysTime: sysTime, DevTime: devTime})
	d.sink.OnDeviceInfo(divecomputer.DeviceInfoEvent{
		Model:  modelResp[0],
		Serial: framing.U32LE(serialResp),
	})

	var ts [4]byte
	copy(ts[:], d.fingerprint)

	lengthResp, st := d.command(ctx, 0xC6, ts, 4)
	if st != status.Success {
		return nil, st
	}
	length := int(framing.U32LE(lengthResp))

	maximum := uint32(enumHeaderSize)
	if length > 0 {
		maximum += uint32(length) + 4
	}
	d.sink.OnProgress(divecomputer.ProgressEvent{Current: enumHeaderSize, Maximum: maximum})

	if length == 0 {
		return nil, status.Success
	}

	totalResp, st := d.command(ctx, 0xC4, ts, 4)
	if st != status.Success {
		return nil, st
	}
	total := int(framing.U32LE(totalResp))
	if total != length+4 {
		return nil, status.Protocol
	}

	buf := make([]byte, length)
	current := 0
	for current < length {
		if ctx.Err() != nil {
			return nil, status.Cancelled
		}
		chunk := enumMinChunk
		if available, st := d.port.Available(); st == status.Success && available > chunk {
			chunk = available
		}
		if remaining := length - current; chunk > remaining {
			chunk = remaining
		}
		if _, st := d.port.Read(ctx, buf[current:current+chunk]); st != status.Success {
			return nil, st
		}
		current += chunk
		d.sink.OnProgress(divecomputer.ProgressEvent{
			Current: uint32(enumHeaderSize + 4 + current),
			Maximum: maximum,
		})
	}

	return buf, status.Success
}

func (d *EnumDriver) readExactCmd(ctx context.Context, cmd []byte, n int) ([]byte, status.Status) {
	if st := d.writeExact(ctx, cmd); st != status.Success {
		return nil, st
	}
	return d.readExact(ctx, n)
}

// Foreach dumps the device's dive log into a fresh buffer, then delegates
// decoding to the self-describing ring buffer.
func (d *EnumDriver) Foreach(ctx context.Context, consumer divecomputer.Consumer) status.Status {
	buf, st := d.dump(ctx)
	if st != status.Success {
		return st
	}
	return ringbuffer.ExtractSelfDescribing(buf, consumer)
}
