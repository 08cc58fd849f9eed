// Package driver implements the two concrete device-driver families: a
// stream-oriented driver (wired serial, ASCII-hex envelopes, CRC-CCITT
// checked memory dump, fixed-slot ring buffer) and an enumeration-oriented
// driver (discovery, binary handshake, variable-length bulk transfer,
// self-describing dive records).
package driver

import (
	"context"

	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/ringbuffer"
	"github.com/tamzrod/divecomputer/status"
	"github.com/tamzrod/divecomputer/transfer"
	"github.com/tamzrod/divecomputer/transport"
)

const (
	streamMemorySize     = 32000
	streamLogbookBegin   = 0x0100
	streamLogbookEnd     = 0x1438
	streamSlotSize       = 0x52
	streamProfileBegin   = 0x1438
	streamProfileEnd     = streamMemorySize
	streamPacketSize     = 32
	streamFingerprintLen = 5
	streamMinChunk       = 1024
)

var (
	streamProbe          = []byte("{123DBA}")
	streamProbeResponse  = []byte("{!D5B3}")
)

// StreamDriver is the stream-family driver, grounded on the wired-serial
// protocol represented by cressi_leonardo.c: ASCII-hex request/response
// envelopes over a purged, RTS/DTR-toggled serial line, and a fixed-size
// memory image decoded by the fixed-slot ring buffer.
type StreamDriver struct {
	port        transport.Transport
	fingerprint []byte
	sink        divecomputer.EventSink
	logger      divecomputer.Logger
}

// NewStreamDriver configures port per spec.md §4.4 step 1-3 (115200 8N1,
// 1000 ms read timeout, RTS/DTR toggling with settling sleeps, then a
// bidirectional purge) and returns a ready driver. A nil sink is replaced
// with divecomputer.NopSink{}.
func NewStreamDriver(port transport.Transport, sink divecomputer.EventSink, logger divecomputer.Logger) (*StreamDriver, status.Status) {
	if sink == nil {
		sink = divecomputer.NopSink{}
	}

	if st := port.Configure(transport.SerialConfig{
		BaudRate:    115200,
		DataBits:    8,
		Parity:      transport.ParityNone,
		StopBits:    transport.StopBitsOne,
		FlowControl: transport.FlowControlNone,
	}); st != status.Success {
		return nil, st
	}
	if st := port.SetTimeout(1000); st != status.Success {
		return nil, st
	}

	if st := port.SetRTS(true); st != status.Success {
		return nil, st
	}
	if st := port.SetDTR(true); st != status.Success {
		return nil, st
	}
	port.Sleep(200)
	if st := port.SetDTR(false); st != status.Success {
		return nil, st
	}
	port.Sleep(100)
	if st := port.Purge(transport.DirectionAll); st != status.Success {
		return nil, st
	}

	return &StreamDriver{port: port, sink: sink, logger: logger}, status.Success
}

// SetFingerprint stores fp, per spec.md §4.4: empty clears it, any other
// length is rejected.
func (d *StreamDriver) SetFingerprint(fp []byte) status.Status {
	if len(fp) != 0 && len(fp) != streamFingerprintLen {
		return status.InvalidArgs
	}
	d.fingerprint = append([]byte(nil), fp...)
	return status.Success
}

// Close releases the underlying transport.
func (d *StreamDriver) Close() status.Status {
	return d.port.Close()
}

// readMemory reads n bytes starting at address into dst, splitting the
// request into chunks of at most streamPacketSize bytes, per spec.md §4.4
// "read(address, dst, n)".
func (d *StreamDriver) readMemory(ctx context.Context, address int, dst []byte) status.Status {
	n := len(dst)
	for offset := 0; offset < n; {
		chunk := n - offset
		if chunk > streamPacketSize {
			chunk = streamPacketSize
		}

		addr := address + offset
		request := []byte{byte(addr >> 8), byte(addr), byte(chunk >> 8), byte(chunk)}
		cmd := framing.Encode(request)
		expected := framing.EnvelopeSize(chunk)

		answer, st := transfer.Transfer(ctx, d.port, cmd, expected, d.logger)
		if st != status.Success {
			return st
		}
		payload, st := framing.Decode(answer)
		if st != status.Success {
			return st
		}
		if len(payload) != chunk {
			return status.Protocol
		}
		copy(dst[offset:offset+chunk], payload)
		offset += chunk
	}
	return status.Success
}

// dump fills buf (resized to streamMemorySize) with a full memory image,
// per spec.md §4.4 "dump(buffer)".
func (d *StreamDriver) dump(ctx context.Context) ([]byte, status.Status) {
	buf := make([]byte, streamMemorySize)
	d.sink.OnProgress(divecomputer.ProgressEvent{Current: 0, Maximum: streamMemorySize})

	if ctx.Err() != nil {
		return nil, status.Cancelled
	}
	if _, st := d.port.Write(ctx, streamProbe); st != status.Success {
		return nil, st
	}
	response := make([]byte, len(streamProbeResponse))
	if _, st := d.port.Read(ctx, response); st != status.Success {
		return nil, st
	}
	if !bytesEqual(response, streamProbeResponse) {
		return nil, status.Protocol
	}

	current := 0
	for current < streamMemorySize {
		if ctx.Err() != nil {
			return nil, status.Cancelled
		}

		chunk := streamMinChunk
		if available, st := d.port.Available(); st == status.Success && available > chunk {
			chunk = available
		}
		if remaining := streamMemorySize - current; chunk > remaining {
			chunk = remaining
		}

		if _, st := d.port.Read(ctx, buf[current:current+chunk]); st != status.Success {
			return nil, st
		}
		current += chunk
		d.sink.OnProgress(divecomputer.ProgressEvent{Current: uint32(current), Maximum: streamMemorySize})
	}

	trailer := make([]byte, 4)
	if _, st := d.port.Read(ctx, trailer); st != status.Success {
		return nil, st
	}
	crcBytes, st := framing.HexToBin(trailer)
	if st != status.Success {
		return nil, st
	}
	if framing.U16BE(crcBytes) != framing.CRC(buf) {
		return nil, status.Protocol
	}

	return buf, status.Success
}

// Foreach dumps the device's memory image, emits the device-info event
// derived from its header, and delegates decoding to the fixed-slot ring
// buffer.
func (d *StreamDriver) Foreach(ctx context.Context, consumer divecomputer.Consumer) status.Status {
	buf, st := d.dump(ctx)
	if st != status.Success {
		return st
	}
	if len(buf) < 4 {
		return status.Protocol
	}

	d.sink.OnDeviceInfo(divecomputer.DeviceInfoEvent{
		Model:  buf[0],
		Serial: framing.U24LE(buf[1:4]),
	})

	layout := ringbuffer.FixedSlotLayout{
		LogbookBegin:   streamLogbookBegin,
		LogbookEnd:     streamLogbookEnd,
		SlotSize:       streamSlotSize,
		ProfileBegin:   streamProfileBegin,
		ProfileEnd:     streamProfileEnd,
		FingerprintLen: streamFingerprintLen,
	}
	return ringbuffer.ExtractFixedSlot(layout, buf, d.fingerprint, d.sink, consumer)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

