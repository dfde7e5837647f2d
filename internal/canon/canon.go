// Package canon computes the canonical, deterministic byte serialisation of a
// Batch used as the HMAC signing input (§4.2, §9). It is intentionally
// hand-written and independent of the wire codec in internal/wire: the wire
// format is allowed to evolve or differ across implementations, but the
// canonical form must be bit-identical for the same logical batch on every
// implementation that speaks this protocol.
package canon

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/sentinel-metrics/sentinel/internal/batch"
)

func appendLenString(buf []byte, s string) []byte {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf = append(buf, lenBytes[:]...)
	return append(buf, s...)
}

func appendI32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

func appendI64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendF64(buf []byte, v float64) []byte {
	return appendU64(buf, math.Float64bits(v))
}

// sortedKeys returns the keys of m in lexicographic order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendSortedMap(buf []byte, m map[string]string) []byte {
	for _, k := range sortedKeys(m) {
		buf = appendLenString(buf, k)
		buf = appendLenString(buf, m[k])
	}
	return buf
}

func appendMetric(buf []byte, m *batch.Metric) []byte {
	buf = appendLenString(buf, m.Name)
	buf = appendSortedMap(buf, m.Labels)
	buf = appendI32(buf, int32(m.Kind))
	switch m.ValueTag() {
	case batch.ValueTagDouble:
		buf = append(buf, byte(batch.ValueTagDouble))
		buf = appendF64(buf, m.Double)
	case batch.ValueTagInt:
		buf = append(buf, byte(batch.ValueTagInt))
		buf = appendI64(buf, m.Int)
	case batch.ValueTagHistogram:
		buf = append(buf, byte(batch.ValueTagHistogram))
		h := m.Histogram
		var lenBytes [4]byte
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(h.Boundaries)))
		buf = append(buf, lenBytes[:]...)
		for _, bound := range h.Boundaries {
			buf = appendF64(buf, bound)
		}
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(h.Counts)))
		buf = append(buf, lenBytes[:]...)
		for _, c := range h.Counts {
			buf = appendU64(buf, c)
		}
		buf = appendF64(buf, h.Sum)
		buf = appendU64(buf, h.Count)
	}
	buf = appendI64(buf, m.TimestampMs)
	return buf
}

// Bytes returns the canonical byte serialisation of b. It is independent of
// map iteration order (labels and Batch.Meta are both sorted by key) and
// therefore bit-identical across any two Batches that are field-wise
// semantically equal, per §8 "Canonical determinism".
func Bytes(b *batch.Batch) []byte {
	var buf []byte
	buf = appendLenString(buf, b.AgentID)
	buf = appendLenString(buf, b.BatchID)
	buf = appendU64(buf, b.SeqStart)
	buf = appendU64(buf, b.SeqEnd)
	buf = appendI64(buf, b.CreatedAtMs)
	for i := range b.Metrics {
		buf = appendMetric(buf, &b.Metrics[i])
	}
	buf = appendSortedMap(buf, b.Meta)
	return buf
}
