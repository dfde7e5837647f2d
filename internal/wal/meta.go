package wal

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const metaFileName = "wal.meta.json"

// Meta is the WAL's persisted side-file (§3 "WAL Meta").
type Meta struct {
	HeadSeq     uint64   `json:"head_seq"`
	TailSeq     uint64   `json:"tail_seq"`
	LastSegment uint64   `json:"last_segment"`
	AckedIDs    []uint64 `json:"acked_ids"`
}

func loadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveMeta rewrites the meta file whole and durably flushes it, per §4.1
// "Meta file is rewritten whole with a durable flush".
func saveMeta(dir string, m *Meta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, metaFileName)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
