package ringbuffer

import (
	"bytes"

	"github.com/tamzrod/divecomputer"
	"github.com/tamzrod/divecomputer/framing"
	"github.com/tamzrod/divecomputer/status"
)

// selfDescribingMarker prefixes every record: the enumeration family's dive
// header.
var selfDescribingMarker = []byte{0xA5, 0xA5, 0x5A, 0x5A}

const (
	selfDescribingFingerprintOffset = 8
	selfDescribingFingerprintLen    = 4
	// selfDescribingMinRecord is the marker (4) plus the u32 length field
	// (4) plus the fingerprint span (8..12), the minimum size a record must
	// have for the fingerprint slice to be in bounds.
	selfDescribingMinRecord = selfDescribingFingerprintOffset + selfDescribingFingerprintLen
)

// ExtractSelfDescribing scans data backwards for the enumeration family's
// dive marker, delivering each match to consumer newest-first, per
// spec.md §4.6.2.
func ExtractSelfDescribing(data []byte, consumer divecomputer.Consumer) status.Status {
	previousOffset := len(data)
	searchFrom := len(data)

	for searchFrom >= 4 {
		matchOffset := lastIndex(data, selfDescribingMarker, searchFrom-4)
		if matchOffset < 0 {
			break
		}

		if matchOffset+8 > len(data) {
			return status.DataFormat
		}
		length := int(framing.U32LE(data[matchOffset+4 : matchOffset+8]))

		if length < selfDescribingMinRecord || matchOffset+length > previousOffset {
			return status.DataFormat
		}

		record := data[matchOffset : matchOffset+length]
		dive := divecomputer.Dive{
			Bytes:       record,
			Fingerprint: record[selfDescribingFingerprintOffset : selfDescribingFingerprintOffset+selfDescribingFingerprintLen],
		}
		if !consumer(dive) {
			return status.Success
		}

		previousOffset = matchOffset
		searchFrom = matchOffset - 4
	}

	return status.Success
}

// lastIndex searches data[:limit+4] backwards for marker, returning the
// highest offset i <= limit such that data[i:i+4] == marker, or -1.
func lastIndex(data, marker []byte, limit int) int {
	for i := limit; i >= 0; i-- {
		if bytes.Equal(data[i:i+4], marker) {
			return i
		}
	}
	return -1
}
