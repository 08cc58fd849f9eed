package ringbuffer

import (
	"testing"

	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/status"
)

// buildRecords concatenates records, each `length` bytes, in increasing
// address order (later address = more recently written, so the newest
// dive is the last one appended).
func buildRecords(lengths ...int) []byte {
	total := 0
	for _, l := range lengths {
		total += l
	}
	data := make([]byte, total)
	offset := 0
	for i, l := range lengths {
		copy(data[offset:offset+4], selfDescribingMarker)
		framing.PutU32LE(data[offset+4:offset+8], uint32(l))
		framing.PutU32LE(data[offset+8:offset+12], uint32(i+1)) // fingerprint
		offset += l
	}
	return data
}

func TestExtractSelfDescribingOrdersNewestFirst(t *testing.T) {
	data := buildRecords(16, 16)

	var fingerprints []uint32
	st := ExtractSelfDescribing(data, func(d divecomputer.Dive) bool {
		fingerprints = append(fingerprints, framing.U32LE(d.Fingerprint))
		return true
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	want := []uint32{2, 1}
	if len(fingerprints) != len(want) {
		t.Fatalf("delivered %d records, want %d", len(fingerprints), len(want))
	}
	for i, w := range want {
		if fingerprints[i] != w {
			t.Fatalf("delivery %d fingerprint = %d, want %d", i, fingerprints[i], w)
		}
	}
}

func TestExtractSelfDescribingEmptyBufferIsSuccess(t *testing.T) {
	st := ExtractSelfDescribing(nil, func(divecomputer.Dive) bool {
		t.Fatal("consumer should not be called on an empty buffer")
		return true
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
}

func TestExtractSelfDescribingStopsWhenConsumerReturnsFalse(t *testing.T) {
	data := buildRecords(16, 16)

	count := 0
	st := ExtractSelfDescribing(data, func(divecomputer.Dive) bool {
		count++
		return false
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	if count != 1 {
		t.Fatalf("delivered %d records, want 1", count)
	}
}

func TestExtractSelfDescribingRejectsOverlap(t *testing.T) {
	data := buildRecords(16, 16)
	// Inflate the older record's declared length so it overruns into the
	// newer one.
	framing.PutU32LE(data[4:8], 64)

	st := ExtractSelfDescribing(data, func(divecomputer.Dive) bool { return true })
	if st != status.DataFormat {
		t.Fatalf("status = %v, want DataFormat", st)
	}
}
