package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Record is a single framed WAL entry: an agent-local monotone id and the
// encoded batch payload bytes (§3 "WAL Record").
type Record struct {
	ID      uint64
	Payload []byte
}

// frameHeaderLen is the length of the fixed portion of a frame preceding the
// payload: <u32 len LE><u64 id LE>.
const frameHeaderLen = 4 + 8

// frameTrailerLen is the length of the CRC32 trailer following the payload.
const frameTrailerLen = 4

// encodeFrame serialises r as <u32 len LE><u64 id LE><payload><u32 crc32 LE>.
// The CRC is computed over the payload only (§3).
func encodeFrame(r Record) []byte {
	buf := make([]byte, frameHeaderLen+len(r.Payload)+frameTrailerLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(r.Payload)))
	binary.LittleEndian.PutUint64(buf[4:12], r.ID)
	copy(buf[12:12+len(r.Payload)], r.Payload)
	crc := crc32.ChecksumIEEE(r.Payload)
	binary.LittleEndian.PutUint32(buf[12+len(r.Payload):], crc)
	return buf
}

// errCRCMismatch is returned by decodeFrame when the trailing checksum
// doesn't match the payload. Callers treat it as corruption: log and abandon
// the remainder of the segment (§4.1 failure semantics).
type errCRCMismatch struct{ recordID uint64 }

func (e *errCRCMismatch) Error() string {
	return fmt.Sprintf("wal: crc mismatch on record %d", e.recordID)
}

// readFrame reads exactly one frame from r. It returns io.EOF both when the
// stream ends cleanly at a frame boundary and when a frame is truncated
// mid-write; the caller treats either as "stop scanning this segment", never
// as corruption.
func readFrame(r io.Reader) (Record, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	payloadLen := binary.LittleEndian.Uint32(header[0:4])
	id := binary.LittleEndian.Uint64(header[4:12])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		// A header with no matching payload is a truncated trailing write.
		return Record{}, io.EOF
	}

	var trailer [frameTrailerLen]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Record{}, io.EOF
	}
	wantCRC := binary.LittleEndian.Uint32(trailer[:])
	gotCRC := crc32.ChecksumIEEE(payload)
	if wantCRC != gotCRC {
		return Record{}, &errCRCMismatch{recordID: id}
	}

	return Record{ID: id, Payload: payload}, nil
}
