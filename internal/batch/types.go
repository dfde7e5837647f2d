// Package batch defines the Metric/Batch domain types and the composer that
// assembles metrics collected by the agent into immutable batches.
package batch

// NormalizeName lowercases and replaces any character outside
// [a-z0-9._] with '_' (§3 "name (normalised lowercase/digits/.​_)"),
// matching the original implementation's collector/naming.rs.
func NormalizeName(raw string) string {
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_':
			out[i] = c
		case c >= 'A' && c <= 'Z':
			out[i] = c - 'A' + 'a'
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Kind identifies the shape of a Metric's value.
type Kind int32

const (
	KindGauge Kind = iota
	KindCounter
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Histogram is the bucketed representation of a histogram metric value.
type Histogram struct {
	Boundaries []float64
	Counts     []uint64
	Count      uint64
	Sum        float64
}

// Metric is a single observation collected by the agent.
type Metric struct {
	Name        string
	Labels      map[string]string
	Kind        Kind
	Double      float64
	Int         int64
	Histogram   *Histogram
	TimestampMs int64
}

// ValueTag mirrors the §4.2 canonical encoding's value discriminant.
type ValueTag byte

const (
	ValueTagDouble    ValueTag = 0x01
	ValueTagInt       ValueTag = 0x02
	ValueTagHistogram ValueTag = 0x03
)

// ValueTag reports which union member of Metric carries the value, matching
// the tag byte used by both the wire codec and the canonical encoder.
func (m *Metric) ValueTag() ValueTag {
	if m.Histogram != nil {
		return ValueTagHistogram
	}
	switch m.Kind {
	case KindCounter:
		return ValueTagInt
	default:
		return ValueTagDouble
	}
}

// Batch is the atomic unit of submission: one or more metrics identified by a
// UUIDv4 batch_id, with a monotone per-agent sequence range.
type Batch struct {
	AgentID     string
	BatchID     string
	SeqStart    uint64
	SeqEnd      uint64
	CreatedAtMs int64
	Metrics     []Metric
	Meta        map[string]string
}

// Clone returns a deep copy. Batches are meant to be immutable once composed;
// Clone exists for call sites (canonicalisation, wire encoding) that want to
// reorder fields without mutating the caller's batch.
func (b *Batch) Clone() *Batch {
	out := &Batch{
		AgentID:     b.AgentID,
		BatchID:     b.BatchID,
		SeqStart:    b.SeqStart,
		SeqEnd:      b.SeqEnd,
		CreatedAtMs: b.CreatedAtMs,
		Metrics:     make([]Metric, len(b.Metrics)),
		Meta:        make(map[string]string, len(b.Meta)),
	}
	for i, m := range b.Metrics {
		nm := m
		if m.Labels != nil {
			nm.Labels = make(map[string]string, len(m.Labels))
			for k, v := range m.Labels {
				nm.Labels[k] = v
			}
		}
		if m.Histogram != nil {
			h := *m.Histogram
			h.Boundaries = append([]float64(nil), m.Histogram.Boundaries...)
			h.Counts = append([]uint64(nil), m.Histogram.Counts...)
			nm.Histogram = &h
		}
		out.Metrics[i] = nm
	}
	for k, v := range b.Meta {
		out.Meta[k] = v
	}
	return out
}
