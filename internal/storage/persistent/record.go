// Package persistent implements KyroQL's durable storage layer: an
// append-only write-ahead log backed by immutable, size-bounded segments,
// grounded on internal/service/trace/wal.go's segment rotation and
// checkpoint machinery, adapted to the kind-tagged record framing spec.md
// §5 mandates for the belief store.
package persistent

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// RecordKind discriminates the payload carried by a single WAL/segment
// record. Each corresponds to a durable side-effect of an IR operation.
type RecordKind uint8

const (
	KindBeliefAsserted     RecordKind = 1
	KindBeliefRetracted    RecordKind = 2
	KindPatternDefined     RecordKind = 3
	KindDerivationRecorded RecordKind = 4
	KindCheckpointMarker   RecordKind = 5
)

// recordHeadSize is the fixed-size prefix before the payload: a u32 length
// and a u8 kind byte.
const recordHeadSize = 5

// maxPayloadSize guards against a corrupt length field causing an
// unbounded allocation during recovery.
const maxPayloadSize = 64 << 20

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// EncodeRecord frames payload per spec.md §5: [len:u32 LE][kind:u8][payload][crc:u32 LE],
// with the CRC32C checksum computed over kind||payload. This deliberately
// uses little-endian framing (the Rust reference implementation's wire
// format), diverging from the teacher WAL's big-endian LSN-prefixed frames;
// see DESIGN.md.
func EncodeRecord(kind RecordKind, payload []byte) ([]byte, error) {
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("persistent: payload of %d bytes exceeds max %d", len(payload), maxPayloadSize)
	}
	buf := make([]byte, recordHeadSize+len(payload)+4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	buf[4] = byte(kind)
	copy(buf[recordHeadSize:], payload)

	crc := crc32.Checksum(buf[4:recordHeadSize+len(payload)], crcTable)
	binary.LittleEndian.PutUint32(buf[recordHeadSize+len(payload):], crc)
	return buf, nil
}

// DecodeRecord reads a single framed record from the front of data and
// returns the kind, payload, and number of bytes consumed. It returns
// ErrIncompleteRecord if data doesn't yet hold a full record (the crash
// recovery caller treats this as "stop here, truncate the rest") and
// ErrCorruptRecord if the CRC doesn't match.
func DecodeRecord(data []byte) (kind RecordKind, payload []byte, consumed int, err error) {
	if len(data) < recordHeadSize {
		return 0, nil, 0, ErrIncompleteRecord
	}
	payloadLen := binary.LittleEndian.Uint32(data[0:4])
	if payloadLen > maxPayloadSize {
		return 0, nil, 0, ErrCorruptRecord
	}
	total := recordHeadSize + int(payloadLen) + 4
	if len(data) < total {
		return 0, nil, 0, ErrIncompleteRecord
	}
	k := RecordKind(data[4])
	p := data[recordHeadSize : recordHeadSize+int(payloadLen)]
	wantCRC := binary.LittleEndian.Uint32(data[recordHeadSize+int(payloadLen) : total])
	gotCRC := crc32.Checksum(data[4:recordHeadSize+int(payloadLen)], crcTable)
	if wantCRC != gotCRC {
		return 0, nil, 0, ErrCorruptRecord
	}
	return k, p, total, nil
}
