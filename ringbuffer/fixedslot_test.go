package ringbuffer

import (
	"testing"

	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/status"
)

type warningSink struct {
	divecomputer.NopSink
	warnings []string
}

func (s *warningSink) OnWarning(e divecomputer.WarningEvent) {
	s.warnings = append(s.warnings, e.Message)
}

func putSlot(data []byte, addr int, seq, header, footer uint16, fingerprint uint64) {
	slot := data[addr : addr+82]
	le16(slot[0:2], seq)
	le16(slot[2:4], header)
	le16(slot[4:6], footer)
	putFingerprint(slot[8:13], fingerprint)
}

// putFingerprint writes a 5-byte little-endian fingerprint, matching
// cressi_leonardo.c's unsigned char fingerprint[5].
func putFingerprint(dst []byte, v uint64) {
	for i := 0; i < 5; i++ {
		dst[i] = byte(v >> (8 * uint(i)))
	}
}

func le16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// buildImage lays out the spec.md §8 scenario 6 arrangement: three logbook
// slots at physical indices (0, 1, 2) with sequence numbers (7, 8, 6), and
// three chained, non-overlapping 20-byte profiles satisfying continuity
// (each older dive's footer+2 equals the next-newer dive's header).
func buildImage(profileEnd int) []byte {
	const logbookBegin, logbookEnd = 0, 3 * 82
	data := make([]byte, profileEnd)

	// dive2 (oldest, seq 6): header 246, footer 268.
	le16(data[246:248], 268)
	le16(data[268:270], 246)
	// dive0 (seq 7): header 270, footer 292.
	le16(data[270:272], 292)
	le16(data[292:294], 270)
	// dive1 (newest, seq 8): header 294, footer 316.
	le16(data[294:296], 316)
	le16(data[316:318], 294)

	putSlot(data, 0, 7, 270, 292, 7)
	putSlot(data, 82, 8, 294, 316, 8)
	putSlot(data, 164, 6, 246, 268, 6)

	_ = logbookBegin
	_ = logbookEnd
	return data
}

func testLayout(profileEnd int) FixedSlotLayout {
	return FixedSlotLayout{
		LogbookBegin:   0,
		LogbookEnd:     3 * 82,
		SlotSize:       82,
		ProfileBegin:   246,
		ProfileEnd:     profileEnd,
		FingerprintLen: 5,
	}
}

func TestExtractFixedSlotOrdersNewestFirst(t *testing.T) {
	data := buildImage(546)
	layout := testLayout(546)

	var seqs []uint16
	st := ExtractFixedSlot(layout, data, nil, &warningSink{}, func(d divecomputer.Dive) bool {
		seqs = append(seqs, framing.U16LE(d.Bytes[0:2]))
		return true
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	want := []uint16{8, 7, 6}
	if len(seqs) != len(want) {
		t.Fatalf("delivered %d dives, want %d", len(seqs), len(want))
	}
	for i, w := range want {
		if seqs[i] != w {
			t.Fatalf("delivery %d: seq = %d, want %d", i, seqs[i], w)
		}
	}
}

func TestExtractFixedSlotFingerprintGate(t *testing.T) {
	data := buildImage(546)
	layout := testLayout(546)

	// Fingerprint of the second-newest dive (seq 7): only the newest (seq
	// 8) should be delivered.
	fp := make([]byte, 5)
	putFingerprint(fp, 7)

	var seqs []uint16
	st := ExtractFixedSlot(layout, data, fp, &warningSink{}, func(d divecomputer.Dive) bool {
		seqs = append(seqs, framing.U16LE(d.Bytes[0:2]))
		return true
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	if len(seqs) != 1 || seqs[0] != 8 {
		t.Fatalf("delivered %v, want [8]", seqs)
	}
}

func TestExtractFixedSlotStopsWhenConsumerReturnsFalse(t *testing.T) {
	data := buildImage(546)
	layout := testLayout(546)

	count := 0
	st := ExtractFixedSlot(layout, data, nil, &warningSink{}, func(d divecomputer.Dive) bool {
		count++
		return false
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	if count != 1 {
		t.Fatalf("delivered %d dives, want 1", count)
	}
}

func TestExtractFixedSlotWarnsOnBudgetExhaustion(t *testing.T) {
	const profileBegin, profileEnd = 246, 276 // profile size 30
	data := make([]byte, profileEnd)

	// Wraparound-chained profiles of logical length 20 each, within a
	// 30-byte profile region: dive2 (oldest) -> dive0 -> dive1 (newest).
	le16(data[246:248], 268) // dive2 header self = footer2
	le16(data[268:270], 246) // dive2 footer self = header2
	le16(data[270:272], 262) // dive0 header self = footer0
	le16(data[262:264], 270) // dive0 footer self = header0
	le16(data[264:266], 256) // dive1 header self = footer1
	le16(data[256:258], 264) // dive1 footer self = header1

	putSlot(data, 0, 7, 270, 262, 7)
	putSlot(data, 82, 8, 264, 256, 8)
	putSlot(data, 164, 6, 246, 268, 6)

	layout := FixedSlotLayout{
		LogbookBegin:   0,
		LogbookEnd:     3 * 82,
		SlotSize:       82,
		ProfileBegin:   profileBegin,
		ProfileEnd:     profileEnd,
		FingerprintLen: 5,
	}

	sink := &warningSink{}
	var lengths []int
	st := ExtractFixedSlot(layout, data, nil, sink, func(d divecomputer.Dive) bool {
		lengths = append(lengths, len(d.Bytes)-layout.SlotSize)
		return true
	})
	if st != status.Success {
		t.Fatalf("status = %v, want Success", st)
	}
	if len(lengths) != 3 {
		t.Fatalf("delivered %d dives, want 3", len(lengths))
	}
	// remaining starts at 30; the first (newest) dive's 20-byte profile
	// fits (30 >= 24) and leaves remaining=6, which isn't enough for the
	// second dive's own 24-byte need (20-byte profile + 4), so the
	// second dive is the one that gets zeroed, and the budget stays
	// exhausted for the third.
	if lengths[0] != 20 {
		t.Fatalf("first delivery should carry the full profile, got %v", lengths)
	}
	if lengths[1] != 0 {
		t.Fatalf("second delivery should have an empty profile once its own budget check fails, got length %d", lengths[1])
	}
	if lengths[2] != 0 {
		t.Fatalf("third delivery should have an empty profile once budget is exhausted, got length %d", lengths[2])
	}
	if len(sink.warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(sink.warnings))
	}
}

func TestExtractFixedSlotRejectsBrokenContinuity(t *testing.T) {
	data := buildImage(546)
	// Corrupt dive0's slot footer (physical index 0) so it no longer abuts
	// dive1's header.
	le16(data[4:6], 280)
	layout := testLayout(546)

	st := ExtractFixedSlot(layout, data, nil, &warningSink{}, func(divecomputer.Dive) bool { return true })
	if st != status.DataFormat {
		t.Fatalf("status = %v, want DataFormat", st)
	}
}
