// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/spool"
)

// ---- fake broker ----

type fakeBroker struct {
	up       bool
	failOn   map[string]bool
	received []string
}

func (b *fakeBroker) Connected() bool { return b.up }

func (b *fakeBroker) Publish(_ context.Context, payload []byte) error {
	if b.failOn[string(payload)] {
		return errors.New("publish rejected")
	}
	b.received = append(b.received, string(payload))
	return nil
}

// ---- fake observer ----

type counts struct {
	published, spooled, failed, depth int
}

func (c *counts) Published(n int)  { c.published += n }
func (c *counts) Spooled()         { c.spooled++ }
func (c *counts) PublishFailed()   { c.failed++ }
func (c *counts) SpoolDepth(n int) { c.depth = n }

func newPipeline(t *testing.T, b *fakeBroker) (*Pipeline, *spool.Spool, *counts) {
	t.Helper()
	sp := spool.New(filepath.Join(t.TempDir(), "LocalQueue.json"))
	obs := &counts{}
	return New(b, sp, zap.NewNop(), obs), sp, obs
}

// ---- tests ----

func TestDeliver_ConnectedPublishesDirectly(t *testing.T) {
	b := &fakeBroker{up: true}
	p, sp, obs := newPipeline(t, b)

	assert.Equal(t, Published, p.Deliver(context.Background(), "A"))
	assert.Equal(t, []string{"A"}, b.received)
	assert.Zero(t, sp.Len())
	assert.Equal(t, 1, obs.published)
}

func TestDeliver_DisconnectedSpoolsInMemory(t *testing.T) {
	b := &fakeBroker{up: false}
	p, sp, obs := newPipeline(t, b)

	assert.Equal(t, Spooled, p.Deliver(context.Background(), "A"))
	assert.Equal(t, 1, sp.Len())
	assert.False(t, sp.Exists(), "append is memory-only until the cycle ends")
	assert.Equal(t, 1, obs.spooled)
}

func TestDeliver_SpooledEventsNeverOvertaken(t *testing.T) {
	b := &fakeBroker{up: false}
	p, sp, _ := newPipeline(t, b)
	ctx := context.Background()

	p.Deliver(ctx, "A")
	p.Deliver(ctx, "B")
	p.Deliver(ctx, "C")

	b.up = true
	p.Deliver(ctx, "D")

	assert.Equal(t, []string{"A", "B", "C", "D"}, b.received)
	assert.Zero(t, sp.Len())
}

func TestDeliver_ThreeOutageCyclesThenRecovery(t *testing.T) {
	b := &fakeBroker{up: false}
	p, sp, obs := newPipeline(t, b)
	ctx := context.Background()

	for _, ev := range []string{"e1", "e2", "e3"} {
		p.Deliver(ctx, ev)
		p.EndCycle()
	}
	assert.Equal(t, []string{"e1", "e2", "e3"}, sp.Entries())
	assert.True(t, sp.Exists())
	assert.Equal(t, 3, obs.depth)

	b.up = true
	p.Deliver(ctx, "e4")
	p.EndCycle()

	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, b.received)
	assert.Zero(t, sp.Len())
	assert.Zero(t, obs.depth)
	assert.False(t, sp.Exists(), "delivered spool file must be removed")
}

func TestDeliver_PublishFailureSpoolsWithoutRetry(t *testing.T) {
	b := &fakeBroker{up: true, failOn: map[string]bool{"A": true}}
	p, sp, obs := newPipeline(t, b)

	assert.Equal(t, Spooled, p.Deliver(context.Background(), "A"))
	assert.Empty(t, b.received)
	assert.Equal(t, []string{"A"}, sp.Entries())
	assert.Equal(t, 1, obs.failed)
}

func TestDeliver_DrainInterruptedKeepsOrder(t *testing.T) {
	b := &fakeBroker{up: false}
	p, sp, _ := newPipeline(t, b)
	ctx := context.Background()

	p.Deliver(ctx, "A")
	p.Deliver(ctx, "B")

	b.up = true
	b.failOn = map[string]bool{"B": true}
	assert.Equal(t, Spooled, p.Deliver(ctx, "C"))
	assert.Equal(t, []string{"A"}, b.received)
	assert.Equal(t, []string{"B", "C"}, sp.Entries())

	b.failOn = nil
	p.Deliver(ctx, "D")
	assert.Equal(t, []string{"A", "B", "C", "D"}, b.received)
}

func TestEndCycle_NoPendingWritesNothing(t *testing.T) {
	b := &fakeBroker{up: true}
	p, sp, _ := newPipeline(t, b)

	p.Deliver(context.Background(), "A")
	p.EndCycle()

	assert.False(t, sp.Exists())
}

func TestRecover_ReplaysPersistedSpoolFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "LocalQueue.json")
	require.NoError(t, os.WriteFile(path, []byte(`["old-1","old-2"]`), 0o644))

	b := &fakeBroker{up: true}
	sp := spool.New(path)
	p := New(b, sp, zap.NewNop(), nil)

	n, err := p.Recover()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, sp.Exists())

	p.Deliver(context.Background(), "new")
	assert.Equal(t, []string{"old-1", "old-2", "new"}, b.received)
}

func TestRecover_FailureLeavesFileAndRetriesAtCycleEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalQueue.json")
	require.NoError(t, os.WriteFile(path, []byte(`[broken`), 0o644))

	b := &fakeBroker{up: true}
	sp := spool.New(path)
	p := New(b, sp, zap.NewNop(), nil)

	_, err := p.Recover()
	require.Error(t, err)
	assert.True(t, sp.Exists())

	// operator repairs the file; the next cycle end picks it up
	require.NoError(t, os.WriteFile(path, []byte(`["old"]`), 0o644))
	p.EndCycle()

	assert.Equal(t, 1, p.Pending())
	assert.False(t, sp.Exists())
}

func TestDeliver_RetriesRecoverBeforePublishing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalQueue.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	b := &fakeBroker{up: true}
	sp := spool.New(path)
	p := New(b, sp, zap.NewNop(), nil)

	_, err := p.Recover()
	require.Error(t, err, "a directory is not a readable spool")

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte(`["old-1","old-2"]`), 0o644))

	assert.Equal(t, Published, p.Deliver(context.Background(), "new-1"))
	p.EndCycle()
	assert.Equal(t, Published, p.Deliver(context.Background(), "new-2"))

	assert.Equal(t, []string{"old-1", "old-2", "new-1", "new-2"}, b.received)
	assert.False(t, sp.Exists())
}

func TestDeliver_UnreadableFileHoldsNewEventsBehindIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LocalQueue.json")
	require.NoError(t, os.WriteFile(path, []byte(`[broken`), 0o644))

	b := &fakeBroker{up: true}
	sp := spool.New(path)
	p := New(b, sp, zap.NewNop(), nil)

	assert.Equal(t, Spooled, p.Deliver(context.Background(), "new-1"))
	assert.Empty(t, b.received)

	p.EndCycle()
	assert.Equal(t, 1, p.Pending(), "entries kept in memory while the file is unreadable")
	assert.True(t, sp.Exists())

	// repaired between cycles: the merged file drains oldest first
	require.NoError(t, os.WriteFile(path, []byte(`["old-1"]`), 0o644))
	p.EndCycle()
	assert.Equal(t, Published, p.Deliver(context.Background(), "new-2"))

	assert.Equal(t, []string{"old-1", "new-1", "new-2"}, b.received)
	assert.Zero(t, p.Pending())
	assert.False(t, sp.Exists())
}

func TestRecover_NoFile(t *testing.T) {
	p, _, _ := newPipeline(t, &fakeBroker{})

	n, err := p.Recover()
	require.NoError(t, err)
	assert.Zero(t, n)
}
