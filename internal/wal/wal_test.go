package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestWAL(t *testing.T, dir string, maxSegmentBytes int64) *WAL {
	t.Helper()
	w, err := Open(dir, Options{FsyncOnAppend: true, MaxSegmentBytes: maxSegmentBytes, AgentID: t.Name()})
	require.NoError(t, err)
	return w
}

func TestDurableAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	w := openTestWAL(t, dir, 1<<20)
	id, err := w.Append([]byte("persistent"))
	require.NoError(t, err)
	w.Ack(id)
	require.NoError(t, w.SaveMeta())
	require.NoError(t, w.Close())

	reopened := openTestWAL(t, dir, 1<<20)
	unacked, err := reopened.IterUnacked()
	require.NoError(t, err)
	require.Empty(t, unacked)
}

func TestAppendReadOrder(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20)

	id0, err := w.Append([]byte("record-0"))
	require.NoError(t, err)
	id1, err := w.Append([]byte("record-1"))
	require.NoError(t, err)

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Len(t, unacked, 2)
	require.Equal(t, id0, unacked[0].ID)
	require.Equal(t, id1, unacked[1].ID)
}

func TestAckRemovesFromUnacked(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20)

	id0, err := w.Append([]byte("a"))
	require.NoError(t, err)
	_, err = w.Append([]byte("b"))
	require.NoError(t, err)
	w.Ack(id0)

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Len(t, unacked, 1)
	require.Equal(t, []byte("b"), unacked[0].Payload)
}

func TestSegmentRotation(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 50)

	for i := 0; i < 10; i++ {
		_, err := w.Append([]byte(fmt.Sprintf("record-%d", i)))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var logFiles int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".log" {
			logFiles++
		}
	}
	require.Greater(t, logFiles, 1)

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Len(t, unacked, 10)
	for i, r := range unacked {
		require.Equal(t, fmt.Sprintf("record-%d", i), string(r.Payload))
	}
}

func TestNextIDMonotoneAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20)
	for i := 0; i < 5; i++ {
		_, err := w.Append([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	w2 := openTestWAL(t, dir, 1<<20)
	id, err := w2.Append([]byte("y"))
	require.NoError(t, err)
	require.Equal(t, uint64(5), id)
}

func TestCompactionPreservesUnackedOrder(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20)

	var ids []uint64
	for i := 0; i < 6; i++ {
		id, err := w.Append([]byte(fmt.Sprintf("r%d", i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// Ack the even-indexed records.
	for i, id := range ids {
		if i%2 == 0 {
			w.Ack(id)
		}
	}

	_, err := w.Compact()
	require.NoError(t, err)

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Len(t, unacked, 3)
	require.Equal(t, "r1", string(unacked[0].Payload))
	require.Equal(t, "r3", string(unacked[1].Payload))
	require.Equal(t, "r5", string(unacked[2].Payload))

	// Appends after compaction continue the id sequence.
	newID, err := w.Append([]byte("r6"))
	require.NoError(t, err)
	require.Equal(t, uint64(6), newID)
}

func TestCRCCorruptionAbandonsRestOfSegment(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20)

	_, err := w.Append([]byte("good-0"))
	require.NoError(t, err)
	_, err = w.Append([]byte("good-1"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	paths, err := listSegments(dir)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	// Corrupt a byte inside the first record's payload.
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	data[frameHeaderLen] ^= 0xFF
	require.NoError(t, os.WriteFile(paths[0], data, 0o644))

	records, corrupted, err := readSegmentRecords(paths[0])
	require.NoError(t, err)
	require.True(t, corrupted)
	require.Empty(t, records)
}
