package wire

import (
	"fmt"
	"math"

	"github.com/sentinel-metrics/sentinel/internal/batch"
)

// Field numbers for the wire schema. Stable across versions; never renumber
// an existing field, only append new ones.
const (
	fBatchAgentID  = 1
	fBatchBatchID  = 2
	fBatchSeqStart = 3
	fBatchSeqEnd   = 4
	fBatchCreated  = 5
	fBatchMetrics  = 6
	fBatchMeta     = 7

	fMetricName      = 1
	fMetricLabels    = 2
	fMetricKind      = 3
	fMetricDouble    = 4
	fMetricInt       = 5
	fMetricHistogram = 6
	fMetricTimestamp = 7

	fHistBoundaries = 1
	fHistCounts     = 2
	fHistCount      = 3
	fHistSum        = 4

	fMapKey   = 1
	fMapValue = 2
)

// Marshal encodes a Batch using the wire (transport/storage) codec. It is NOT
// the signing input; use internal/canon for that.
func Marshal(b *batch.Batch) []byte {
	var buf []byte
	buf = appendStringField(buf, fBatchAgentID, b.AgentID)
	buf = appendStringField(buf, fBatchBatchID, b.BatchID)
	buf = appendVarintField(buf, fBatchSeqStart, b.SeqStart)
	buf = appendVarintField(buf, fBatchSeqEnd, b.SeqEnd)
	buf = appendVarintField(buf, fBatchCreated, uint64(b.CreatedAtMs))
	for _, m := range b.Metrics {
		buf = appendBytesField(buf, fBatchMetrics, marshalMetric(&m))
	}
	for k, v := range b.Meta {
		buf = appendBytesField(buf, fBatchMeta, marshalMapEntry(k, v))
	}
	return buf
}

func marshalMapEntry(k, v string) []byte {
	var buf []byte
	buf = appendStringField(buf, fMapKey, k)
	buf = appendStringField(buf, fMapValue, v)
	return buf
}

func marshalMetric(m *batch.Metric) []byte {
	var buf []byte
	buf = appendStringField(buf, fMetricName, m.Name)
	for k, v := range m.Labels {
		buf = appendBytesField(buf, fMetricLabels, marshalMapEntry(k, v))
	}
	buf = appendVarintField(buf, fMetricKind, uint64(m.Kind))
	switch m.ValueTag() {
	case batch.ValueTagDouble:
		buf = appendFixed64Field(buf, fMetricDouble, math.Float64bits(m.Double))
	case batch.ValueTagInt:
		buf = appendVarintField(buf, fMetricInt, uint64(m.Int))
	case batch.ValueTagHistogram:
		buf = appendBytesField(buf, fMetricHistogram, marshalHistogram(m.Histogram))
	}
	buf = appendVarintField(buf, fMetricTimestamp, uint64(m.TimestampMs))
	return buf
}

func marshalHistogram(h *batch.Histogram) []byte {
	var buf []byte
	for _, b := range h.Boundaries {
		buf = appendFixed64Field(buf, fHistBoundaries, math.Float64bits(b))
	}
	for _, c := range h.Counts {
		buf = appendVarintField(buf, fHistCounts, c)
	}
	buf = appendVarintField(buf, fHistCount, h.Count)
	buf = appendFixed64Field(buf, fHistSum, math.Float64bits(h.Sum))
	return buf
}

// Unmarshal decodes a wire-encoded Batch. Unknown fields are skipped so newer
// writers can add fields without breaking older readers.
func Unmarshal(data []byte) (*batch.Batch, error) {
	r := &reader{b: data}
	b := &batch.Batch{Meta: map[string]string{}}
	for !r.done() {
		fieldNum, wireType, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fBatchAgentID:
			v, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			b.AgentID = string(v)
		case fBatchBatchID:
			v, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			b.BatchID = string(v)
		case fBatchSeqStart:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			b.SeqStart = v
		case fBatchSeqEnd:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			b.SeqEnd = v
		case fBatchCreated:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			b.CreatedAtMs = int64(v)
		case fBatchMetrics:
			raw, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			m, err := unmarshalMetric(raw)
			if err != nil {
				return nil, err
			}
			b.Metrics = append(b.Metrics, *m)
		case fBatchMeta:
			raw, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			k, v, err := unmarshalMapEntry(raw)
			if err != nil {
				return nil, err
			}
			b.Meta[k] = v
		default:
			if err := r.skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func unmarshalMapEntry(data []byte) (string, string, error) {
	r := &reader{b: data}
	var k, v string
	for !r.done() {
		fieldNum, wireType, err := r.readTag()
		if err != nil {
			return "", "", err
		}
		switch fieldNum {
		case fMapKey:
			b, err := r.readBytes()
			if err != nil {
				return "", "", err
			}
			k = string(b)
		case fMapValue:
			b, err := r.readBytes()
			if err != nil {
				return "", "", err
			}
			v = string(b)
		default:
			if err := r.skip(wireType); err != nil {
				return "", "", err
			}
		}
	}
	return k, v, nil
}

func unmarshalMetric(data []byte) (*batch.Metric, error) {
	r := &reader{b: data}
	m := &batch.Metric{Labels: map[string]string{}}
	haveDouble, haveInt, haveHist := false, false, false
	for !r.done() {
		fieldNum, wireType, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fMetricName:
			b, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			m.Name = string(b)
		case fMetricLabels:
			raw, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			k, v, err := unmarshalMapEntry(raw)
			if err != nil {
				return nil, err
			}
			m.Labels[k] = v
		case fMetricKind:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			m.Kind = batch.Kind(v)
		case fMetricDouble:
			v, err := r.readFixed64()
			if err != nil {
				return nil, err
			}
			m.Double = math.Float64frombits(v)
			haveDouble = true
		case fMetricInt:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			m.Int = int64(v)
			haveInt = true
		case fMetricHistogram:
			raw, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			h, err := unmarshalHistogram(raw)
			if err != nil {
				return nil, err
			}
			m.Histogram = h
			haveHist = true
		case fMetricTimestamp:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			m.TimestampMs = int64(v)
		default:
			if err := r.skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	if !haveDouble && !haveInt && !haveHist {
		return nil, fmt.Errorf("wire: metric %q has no value", m.Name)
	}
	return m, nil
}

func unmarshalHistogram(data []byte) (*batch.Histogram, error) {
	r := &reader{b: data}
	h := &batch.Histogram{}
	for !r.done() {
		fieldNum, wireType, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch fieldNum {
		case fHistBoundaries:
			v, err := r.readFixed64()
			if err != nil {
				return nil, err
			}
			h.Boundaries = append(h.Boundaries, math.Float64frombits(v))
		case fHistCounts:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			h.Counts = append(h.Counts, v)
		case fHistCount:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			h.Count = v
		case fHistSum:
			v, err := r.readFixed64()
			if err != nil {
				return nil, err
			}
			h.Sum = math.Float64frombits(v)
		default:
			if err := r.skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}
