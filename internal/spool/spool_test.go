// internal/spool/spool_test.go
package spool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpool(t *testing.T) *Spool {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "LocalQueue.json"))
}

func TestFlushThenLoad_RoundTrip(t *testing.T) {
	s := newSpool(t)
	want := []string{`{"IdMachine":1}`, `{"IdMachine":2}`, `{"IdMachine":3}`}
	for _, e := range want {
		s.Append(e)
	}
	assert.Equal(t, PendingInMemory, s.State())

	require.NoError(t, s.Flush())
	assert.True(t, s.Exists())
	assert.Equal(t, PersistedOnDisk, s.State())

	// a fresh process sees the file and nothing in memory
	s2 := New(s.Path())
	assert.True(t, s2.Unloaded())

	got, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s2.Entries())
	assert.Equal(t, Reloaded, s2.State())
	assert.False(t, s2.Exists(), "load must delete the spool file")
	assert.False(t, s2.Unloaded())
}

func TestFlush_EmptyIsRejected(t *testing.T) {
	s := newSpool(t)

	err := s.Flush()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.False(t, s.Exists(), "no empty file may be written")
}

func TestLoad_RejectedWhilePending(t *testing.T) {
	s := newSpool(t)
	s.Append("a")
	require.NoError(t, s.Flush())

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrPending)
	assert.True(t, s.Exists())
}

func TestLoad_NoFile(t *testing.T) {
	s := newSpool(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestLoad_CorruptFileLeftInPlace(t *testing.T) {
	s := newSpool(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("not json"), 0o644))

	_, err := s.Load()
	require.Error(t, err)
	assert.True(t, s.Exists(), "failed load must not delete the file")
	assert.Zero(t, s.Len())
}

func TestFlush_MergesUnloadedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalQueue.json")
	require.NoError(t, os.WriteFile(path, []byte(`["old-1","old-2"]`), 0o644))

	s := New(path)
	s.Append("new-1")
	require.NoError(t, s.Flush())

	got, err := New(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"old-1", "old-2", "new-1"}, got)
}

func TestFlush_RefusesToOverwriteUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalQueue.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	s := New(path)
	s.Append("new-1")

	require.Error(t, s.Flush())
	assert.Equal(t, []string{"new-1"}, s.Entries(), "entries retained after failed flush")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(raw))
}

func TestFlush_FailureKeepsMemory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing-dir", "LocalQueue.json"))
	s.Append("a")
	s.Append("b")

	require.Error(t, s.Flush())
	assert.Equal(t, []string{"a", "b"}, s.Entries())
	assert.Equal(t, PendingInMemory, s.State())
}

func TestClear_DoesNotTouchDisk(t *testing.T) {
	s := newSpool(t)
	s.Append("a")
	require.NoError(t, s.Flush())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Equal(t, Empty, s.State())
	assert.True(t, s.Exists())
}

func TestDrain_FullRemovesFlushedFile(t *testing.T) {
	s := newSpool(t)
	s.Append("a")
	s.Append("b")
	require.NoError(t, s.Flush())

	var sent []string
	n, err := s.Drain(func(e string) error {
		sent = append(sent, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, sent)
	assert.Zero(t, s.Len())
	assert.False(t, s.Exists(), "delivered entries must not be replayed after restart")
}

func TestDrain_PartialKeepsTail(t *testing.T) {
	s := newSpool(t)
	for _, e := range []string{"a", "b", "c"} {
		s.Append(e)
	}

	down := errors.New("broker down")
	n, err := s.Drain(func(e string) error {
		if e == "b" {
			return down
		}
		return nil
	})
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"b", "c"}, s.Entries())
	assert.Equal(t, PendingInMemory, s.State())
}

func TestFlush_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "LocalQueue.json"))
	s.Append("a")
	require.NoError(t, s.Flush())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "LocalQueue.json", files[0].Name())
}
