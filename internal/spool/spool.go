// internal/spool/spool.go
package spool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrPending is returned by Load while memory still holds entries.
	ErrPending = errors.New("spool: pending entries in memory")

	// ErrEmpty is returned by Flush when there is nothing to persist.
	ErrEmpty = errors.New("spool: nothing to flush")

	// ErrNoFile is returned by Load when no spool file exists.
	ErrNoFile = errors.New("spool: no spool file")
)

// State is the lifecycle position of the spool.
type State int

const (
	Empty           State = iota // nothing pending
	PendingInMemory              // memory holds entries newer than the file
	PersistedOnDisk              // the file holds every pending entry
	Reloaded                     // entries loaded into memory, file deleted
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case PendingInMemory:
		return "pending-in-memory"
	case PersistedOnDisk:
		return "persisted-on-disk"
	case Reloaded:
		return "reloaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Spool is a file-backed FIFO of serialized events.
// The file is read at Load and written at Flush, never on Append.
type Spool struct {
	mu      sync.Mutex
	path    string
	entries []string
	state   State

	// written is set once this process owns the file contents.
	written bool

	// foreign marks a file present on disk that was never loaded.
	// Flush merges it instead of overwriting it.
	foreign bool
}

// New opens a spool at path. The file is not read until Load.
func New(path string) *Spool {
	s := &Spool{path: path}
	s.foreign = s.Exists()
	return s
}

// Path returns the spool file location.
func (s *Spool) Path() string { return s.path }

// Exists reports whether a spool file is present on disk.
func (s *Spool) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Unloaded reports whether a spool file from an earlier run is still waiting to be loaded.
func (s *Spool) Unloaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.foreign && s.Exists()
}

// Len returns the number of pending entries in memory.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// State returns the current lifecycle state.
func (s *Spool) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entries returns a copy of the pending entries in FIFO order.
func (s *Spool) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// Load reads the spool file into memory and deletes it.
// Allowed only when memory is empty. On failure the file is left untouched.
func (s *Spool) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > 0 {
		return nil, ErrPending
	}

	entries, err := readFile(s.path)
	if err != nil {
		return nil, err
	}

	if err := os.Remove(s.path); err != nil {
		return nil, fmt.Errorf("spool: remove %s: %w", s.path, err)
	}

	s.entries = entries
	s.foreign = false
	s.written = false
	if len(entries) > 0 {
		s.state = Reloaded
	} else {
		s.state = Empty
	}
	return append([]string(nil), entries...), nil
}

// Append adds one serialized event. Memory only.
func (s *Spool) Append(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	s.state = PendingInMemory
}

// Flush persists every pending entry, replacing the file atomically
// (write temp, sync, rename). Allowed only when entries are pending.
// On failure the in-memory entries are kept for the next attempt.
func (s *Spool) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return ErrEmpty
	}

	entries := s.entries
	if s.foreign {
		older, err := readFile(s.path)
		if err != nil && !errors.Is(err, ErrNoFile) {
			return fmt.Errorf("spool: refusing to overwrite unread file: %w", err)
		}
		entries = append(older, entries...)
	}

	if err := writeFileAtomic(s.path, entries); err != nil {
		return err
	}

	s.entries = entries
	s.foreign = false
	s.written = true
	s.state = PersistedOnDisk
	return nil
}

// Clear empties memory without touching disk.
func (s *Spool) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.state = Empty
}

// Drain hands entries to send in FIFO order. Delivered entries leave the
// spool; the first failure stops the drain and keeps the rest.
// After a full drain a file written by an earlier Flush is removed so
// delivered entries are not replayed on restart.
func (s *Spool) Drain(send func(entry string) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if err := send(e); err != nil {
			s.entries = s.entries[n:]
			s.state = PendingInMemory
			return n, err
		}
		n++
	}

	s.entries = nil
	s.state = Empty

	if s.written {
		s.written = false
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, fmt.Errorf("spool: remove delivered file: %w", err)
		}
	}
	return n, nil
}

func readFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("spool: read %s: %w", path, err)
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("spool: decode %s: %w", path, err)
	}
	return entries, nil
}

func writeFileAtomic(path string, entries []string) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("spool: encode: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("spool: create temp: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("spool: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("spool: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("spool: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("spool: rename: %w", err)
	}
	return nil
}
