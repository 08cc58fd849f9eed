// Package ringbuffer decodes the two on-device log layouts into individual
// dive records: a fixed-size logbook of slots pointing into a wrap-around
// profile region (FixedSlot, paired with the stream-family driver), and a
// flat concatenation of self-describing variable-length records
// (SelfDescribing, paired with the enumeration-family driver).
package ringbuffer

import (
	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/status"
)

// FixedSlotLayout describes the memory geometry of a fixed-slot logbook,
// grounded on cressi_leonardo.c's RB_LOGBOOK_* / RB_PROFILE_* constants.
type FixedSlotLayout struct {
	LogbookBegin, LogbookEnd int
	SlotSize                 int
	ProfileBegin, ProfileEnd int
	// FingerprintLen is the length of the fingerprint slice stored at
	// slot offset 8.
	FingerprintLen int
}

const fingerprintSlotOffset = 8

func (l FixedSlotLayout) slotCount() int {
	return (l.LogbookEnd - l.LogbookBegin) / l.SlotSize
}

func (l FixedSlotLayout) profileSize() int {
	return l.ProfileEnd - l.ProfileBegin
}

// distance is the wrap-aware forward distance from a to b within the
// profile region.
func (l FixedSlotLayout) distance(a, b int) int {
	d := b - a
	if d < 0 {
		d += l.profileSize()
	}
	return d
}

func (l FixedSlotLayout) slotAddr(index int) int {
	return l.LogbookBegin + index*l.SlotSize
}

func allFF(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}

// ExtractFixedSlot walks data's logbook newest-first, delivering each dive
// through consumer, per spec.md §4.6.1. fingerprint is the driver's current
// fingerprint (empty disables the gate); sink receives a WarningEvent the
// first time the profile-region budget underflows mid-walk.
func ExtractFixedSlot(layout FixedSlotLayout, data []byte, fingerprint []byte, sink divecomputer.EventSink, consumer divecomputer.Consumer) status.Status {
	count, latest := locateNewest(layout, data)
	if count == 0 {
		return status.Success
	}

	total := layout.slotCount()
	remaining := layout.profileSize()
	budgetExhausted := false
	warned := false
	prevHeader := -1

	for i := 0; i < count; i++ {
		index := ((latest-i)%total + total) % total
		addr := layout.slotAddr(index)
		slot := data[addr : addr+layout.SlotSize]

		header := int(framing.U16LE(slot[2:4]))
		footer := int(framing.U16LE(slot[4:6]))
		if header < layout.ProfileBegin || header > layout.ProfileEnd-2 ||
			footer < layout.ProfileBegin || footer > layout.ProfileEnd-2 {
			return status.DataFormat
		}

		if i > 0 && prevHeader != footer+2 {
			return status.DataFormat
		}
		prevHeader = header

		flen := layout.FingerprintLen
		slotFingerprint := slot[fingerprintSlotOffset : fingerprintSlotOffset+flen]
		if len(fingerprint) != 0 && bytesEqual(fingerprint, slotFingerprint) {
			return status.Success
		}

		length := layout.distance(header, footer) - 2

		if framing.U16LE(data[footer:footer+2]) != uint16(header) ||
			framing.U16LE(data[header:header+2]) != uint16(footer) {
			return status.DataFormat
		}

		// Prospective check, mirroring cressi_leonardo_extract_dives's
		// `if (remaining && remaining >= length + 4)`: a dive whose
		// profile doesn't fit in what's left is the one that gets
		// zeroed, and the budget stays exhausted for every dive after
		// it (older dives sit past ring-buffer bytes already
		// overwritten by newer ones).
		if !budgetExhausted && remaining < length+4 {
			budgetExhausted = true
		}

		useLength := length
		if budgetExhausted {
			useLength = 0
		}

		bytesOut := make([]byte, layout.SlotSize+useLength)
		copy(bytesOut, slot)
		if useLength > 0 {
			copyProfile(bytesOut[layout.SlotSize:], data, layout, header+2, useLength)
		}

		if budgetExhausted {
			if !warned {
				sink.OnWarning(divecomputer.WarningEvent{
					Message: "fixed-slot ring buffer: profile budget exhausted, delivering remaining entries with empty profile",
				})
				warned = true
			}
		} else {
			remaining -= length + 4
		}

		dive := divecomputer.Dive{
			Bytes:       bytesOut,
			Fingerprint: bytesOut[fingerprintSlotOffset : fingerprintSlotOffset+flen],
		}
		if !consumer(dive) {
			return status.Success
		}
	}

	return status.Success
}

// locateNewest finds the highest sequence number among the logbook's valid
// prefix (slots up to, but not including, the first all-0xFF slot or a
// slot reporting the sentinel sequence 0xFFFF), returning how many valid
// slots exist and the physical index of the newest one.
func locateNewest(layout FixedSlotLayout, data []byte) (count, latest int) {
	total := layout.slotCount()
	best := -1
	bestIndex := -1

	for i := 0; i < total; i++ {
		addr := layout.slotAddr(i)
		slot := data[addr : addr+layout.SlotSize]
		if allFF(slot) {
			break
		}
		seq := int(framing.U16LE(slot[0:2]))
		if seq == 0xFFFF {
			break
		}
		count = i + 1
		if seq > best {
			best = seq
			bestIndex = i
		}
	}

	if count == 0 {
		return 0, 0
	}
	return count, bestIndex
}

// copyProfile fills dst (length n) from data starting at addr, wrapping at
// layout.ProfileEnd back to layout.ProfileBegin as needed.
func copyProfile(dst, data []byte, layout FixedSlotLayout, addr, n int) {
	if addr+n <= layout.ProfileEnd {
		copy(dst, data[addr:addr+n])
		return
	}
	head := layout.ProfileEnd - addr
	copy(dst[:head], data[addr:layout.ProfileEnd])
	copy(dst[head:], data[layout.ProfileBegin:layout.ProfileBegin+(n-head)])
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
