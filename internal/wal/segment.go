package wal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const segmentPrefix = "wal-"
const segmentSuffix = ".log"

func segmentName(idx uint64) string {
	return fmt.Sprintf("%s%07d%s", segmentPrefix, idx, segmentSuffix)
}

// parseSegmentIndex extracts N from a "wal-NNNNNNN.log" file name.
func parseSegmentIndex(name string) (uint64, bool) {
	if !strings.HasPrefix(name, segmentPrefix) || !strings.HasSuffix(name, segmentSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, segmentPrefix), segmentSuffix)
	idx, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// listSegments returns the `*.log` segment file paths in dir, in ascending
// creation order (lexicographic order of the zero-padded index == creation
// order, per §4.1).
func listSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := parseSegmentIndex(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// readSegmentRecords decodes every frame in path. A CRC mismatch or a
// truncated trailing frame stops the scan of this segment without treating it
// as an error (§4.1 "Failure semantics"); corrupted reports whether a CRC
// mismatch (as opposed to a clean/truncated EOF) ended the scan, so the
// caller can log it.
func readSegmentRecords(path string) (records []Record, corrupted bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, ferr := readFrame(r)
		if ferr == nil {
			records = append(records, rec)
			continue
		}
		if _, ok := ferr.(*errCRCMismatch); ok {
			return records, true, nil
		}
		// io.EOF (clean) or a truncated trailing frame: stop normally.
		return records, false, nil
	}
}

// segmentWriter is the WAL's single append-only writer for its current
// segment. Only one instance is ever live at a time, serialised by the WAL's
// mutex (§9 "single-writer, guarded by a mutex").
type segmentWriter struct {
	index int
	path  string
	file  *os.File
	buf   *bufio.Writer
	size  int64
	fsync bool
}

func createSegmentWriter(dir string, idx uint64, fsync bool) (*segmentWriter, error) {
	path := filepath.Join(dir, segmentName(idx))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &segmentWriter{
		index: int(idx),
		path:  path,
		file:  f,
		buf:   bufio.NewWriter(f),
		size:  info.Size(),
		fsync: fsync,
	}, nil
}

func (s *segmentWriter) append(r Record) error {
	frame := encodeFrame(r)
	if _, err := s.buf.Write(frame); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	if s.fsync {
		if err := s.file.Sync(); err != nil {
			return err
		}
	}
	s.size += int64(len(frame))
	return nil
}

func (s *segmentWriter) close() error {
	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
