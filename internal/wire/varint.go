// Package wire implements a hand-written, protobuf-wire-compatible encoder
// and decoder for the Batch/Metric schema. It exists as the transport/storage
// serialiser; it is deliberately distinct from internal/canon, which computes
// the deterministic bytes used for HMAC signing (§9 "canonical bytes vs wire
// bytes" — never assume the wire encoder is stable enough to sign).
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

func tag(fieldNum int, wireType byte) uint64 {
	return uint64(fieldNum)<<3 | uint64(wireType)
}

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func appendTag(buf []byte, fieldNum int, wireType byte) []byte {
	return appendVarint(buf, tag(fieldNum, wireType))
}

func appendVarintField(buf []byte, fieldNum int, v uint64) []byte {
	buf = appendTag(buf, fieldNum, wireVarint)
	return appendVarint(buf, v)
}

func appendStringField(buf []byte, fieldNum int, s string) []byte {
	buf = appendTag(buf, fieldNum, wireBytes)
	buf = appendVarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendBytesField(buf []byte, fieldNum int, b []byte) []byte {
	buf = appendTag(buf, fieldNum, wireBytes)
	buf = appendVarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func appendFixed64Field(buf []byte, fieldNum int, bits uint64) []byte {
	buf = appendTag(buf, fieldNum, wireFixed64)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], bits)
	return append(buf, tmp[:]...)
}

// reader walks a protobuf-wire-encoded byte slice.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) done() bool { return r.pos >= len(r.b) }

func (r *reader) readVarint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if r.pos >= len(r.b) {
			return 0, io.ErrUnexpectedEOF
		}
		c := r.b[r.pos]
		r.pos++
		result |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("wire: varint overflow")
		}
	}
}

func (r *reader) readTag() (fieldNum int, wireType byte, err error) {
	v, err := r.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 3), byte(v & 0x7), nil
}

func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.b[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *reader) readFixed64() (uint64, error) {
	if r.pos+8 > len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// skip discards the value of a field whose wire type was already read, for
// forward-compatibility with unknown field numbers.
func (r *reader) skip(wireType byte) error {
	switch wireType {
	case wireVarint:
		_, err := r.readVarint()
		return err
	case wireFixed64:
		_, err := r.readFixed64()
		return err
	case wireBytes:
		_, err := r.readBytes()
		return err
	case wireFixed32:
		if r.pos+4 > len(r.b) {
			return io.ErrUnexpectedEOF
		}
		r.pos += 4
		return nil
	default:
		return fmt.Errorf("wire: unknown wire type %d", wireType)
	}
}
