// Package wal implements the agent's durable, segmented, CRC-guarded queue of
// pending batches (§4.1, §3). It is single-writer: all access is serialised
// behind the WAL's mutex, matching §9's guidance not to attempt parallel WAL
// appends.
package wal

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

// WAL is a handle to one agent's on-disk write-ahead log directory. The Agent
// exclusively owns the directory; the WAL exclusively owns its current
// segment writer (§3 "Ownership").
type WAL struct {
	dir             string
	fsync           bool
	maxSegmentBytes int64
	logger          log.Logger
	metrics         *walMetrics

	mu           sync.Mutex
	current      *segmentWriter
	segmentIndex uint64
	nextID       uint64
	acked        map[uint64]struct{}
}

// Options configures Open.
type Options struct {
	FsyncOnAppend   bool
	MaxSegmentBytes int64
	Logger          log.Logger
	Registerer      prometheus.Registerer
	// AgentID labels the WAL's metrics; it need not match the wire agent_id.
	AgentID string
}

// Open creates dir if absent, recovers next_id and the active segment index
// from any existing segments, loads the acked set from the meta file if
// present, and always begins writing into a fresh segment (§4.1 "open").
func Open(dir string, opts Options) (*WAL, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.MaxSegmentBytes <= 0 {
		opts.MaxSegmentBytes = 128 * 1024 * 1024
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	metrics := newWALMetrics(opts.Registerer, opts.AgentID)

	meta, err := loadMeta(dir)
	if err != nil {
		return nil, err
	}
	acked := map[uint64]struct{}{}
	if meta != nil {
		for _, id := range meta.AckedIDs {
			acked[id] = struct{}{}
		}
	}

	segments, err := listSegments(dir)
	if err != nil {
		return nil, err
	}

	var nextID uint64
	var maxSegIdx uint64
	haveSeg := false

	for _, path := range segments {
		idx, ok := parseSegmentIndex(filepath.Base(path))
		if ok && (!haveSeg || idx > maxSegIdx) {
			maxSegIdx = idx
			haveSeg = true
		}
		records, corrupted, err := readSegmentRecords(path)
		if err != nil {
			return nil, err
		}
		if corrupted {
			metrics.crcErrorsTotal.Inc()
			level.Error(opts.Logger).Log("msg", "wal: crc mismatch recovering segment, abandoning remainder", "segment", path)
		}
		for _, r := range records {
			if r.ID+1 > nextID {
				nextID = r.ID + 1
			}
		}
	}

	newSegIdx := uint64(0)
	if haveSeg {
		newSegIdx = maxSegIdx + 1
	}

	current, err := createSegmentWriter(dir, newSegIdx, opts.FsyncOnAppend)
	if err != nil {
		return nil, err
	}

	metrics.segmentsGauge.Set(float64(len(segments) + 1))

	return &WAL{
		dir:             dir,
		fsync:           opts.FsyncOnAppend,
		maxSegmentBytes: opts.MaxSegmentBytes,
		logger:          opts.Logger,
		metrics:         metrics,
		current:         current,
		segmentIndex:    newSegIdx,
		nextID:          nextID,
		acked:           acked,
	}, nil
}

// Close releases the current segment's file handle. It does not persist meta;
// callers should SaveMeta first.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics.Unregister()
	return w.current.close()
}

// Append assigns the next monotone id, rotating to a fresh segment first if
// the active one has reached max_segment_bytes, then durably writes the
// framed record (§4.1 "append").
func (w *WAL) Append(payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	if w.current.size >= w.maxSegmentBytes {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	if err := w.current.append(Record{ID: id, Payload: payload}); err != nil {
		return 0, err
	}
	w.metrics.appendedTotal.Inc()
	return id, nil
}

func (w *WAL) rotateLocked() error {
	if err := w.current.close(); err != nil {
		return err
	}
	w.segmentIndex++
	next, err := createSegmentWriter(w.dir, w.segmentIndex, w.fsync)
	if err != nil {
		return err
	}
	w.current = next
	w.metrics.segmentsGauge.Inc()
	return nil
}

// Ack marks id as acknowledged in memory. It has no on-disk effect until
// SaveMeta is called (§4.1 "ack").
func (w *WAL) Ack(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, already := w.acked[id]; !already {
		w.acked[id] = struct{}{}
		w.metrics.ackedTotal.Inc()
	}
}

// IterUnacked walks every segment in creation order and returns every record
// whose id has not been acked, in ascending id order (§4.1, §8 "WAL order").
func (w *WAL) IterUnacked() ([]Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.iterUnackedLocked()
}

func (w *WAL) iterUnackedLocked() ([]Record, error) {
	segments, err := listSegments(w.dir)
	if err != nil {
		return nil, err
	}

	var result []Record
	for _, path := range segments {
		records, corrupted, err := readSegmentRecords(path)
		if err != nil {
			return nil, err
		}
		if corrupted {
			w.metrics.crcErrorsTotal.Inc()
			level.Error(w.logger).Log("msg", "wal: crc mismatch scanning segment, abandoning remainder", "segment", path)
		}
		for _, r := range records {
			if _, acked := w.acked[r.ID]; !acked {
				result = append(result, r)
			}
		}
	}
	w.metrics.unackedGauge.Set(float64(len(result)))
	return result, nil
}

// headSeqLocked returns the lowest id below next_id not present in acked, or
// next_id if every id below it is acked. This is O(next_id); §9 Open
// Questions flags replacing it with a persisted cursor for large agents.
func (w *WAL) headSeqLocked() uint64 {
	for id := uint64(0); id < w.nextID; id++ {
		if _, acked := w.acked[id]; !acked {
			return id
		}
	}
	return w.nextID
}

// SaveMeta rewrites the meta side-file with the current head/tail sequence
// and acked set, durably (§4.1 "save_meta").
func (w *WAL) SaveMeta() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveMetaLocked()
}

func (w *WAL) saveMetaLocked() error {
	ids := make([]uint64, 0, len(w.acked))
	for id := range w.acked {
		ids = append(ids, id)
	}
	meta := &Meta{
		HeadSeq:     w.headSeqLocked(),
		TailSeq:     w.nextID,
		LastSegment: w.segmentIndex,
		AckedIDs:    ids,
	}
	return saveMeta(w.dir, meta)
}

// Compact rewrites the WAL to contain only unacked records, preserving their
// relative order, in a single fresh segment 0 (§4.1 "compact", §8
// "Compaction preserves surviving order").
func (w *WAL) Compact() (*Meta, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	unacked, err := w.iterUnackedLocked()
	if err != nil {
		return nil, err
	}

	stagingDir := filepath.Join(w.dir, ".compact_tmp")
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, err
	}

	var buf []byte
	for _, r := range unacked {
		buf = append(buf, encodeFrame(r)...)
	}

	stagedPath := filepath.Join(stagingDir, segmentName(0))
	if err := os.WriteFile(stagedPath, buf, 0o644); err != nil {
		return nil, err
	}
	if w.fsync {
		if f, ferr := os.Open(stagedPath); ferr == nil {
			_ = f.Sync()
			f.Close()
		}
	}

	if err := w.current.close(); err != nil {
		return nil, err
	}

	oldPaths, err := listSegments(w.dir)
	if err != nil {
		return nil, err
	}
	for _, p := range oldPaths {
		if err := os.Remove(p); err != nil {
			return nil, err
		}
	}

	finalPath := filepath.Join(w.dir, segmentName(0))
	if err := os.Rename(stagedPath, finalPath); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, err
	}

	w.segmentIndex = 0
	current, err := createSegmentWriter(w.dir, 0, w.fsync)
	if err != nil {
		return nil, err
	}
	w.current = current
	w.acked = map[uint64]struct{}{}
	w.metrics.segmentsGauge.Set(1)
	w.metrics.compactionsTotal.Inc()

	if err := w.saveMetaLocked(); err != nil {
		return nil, err
	}
	meta, err := loadMeta(w.dir)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// DiskBytes returns the total size in bytes of all current segment files;
// callers use it to decide when to invoke Compact.
func (w *WAL) DiskBytes() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths, err := listSegments(w.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
