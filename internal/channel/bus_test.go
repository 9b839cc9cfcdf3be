// internal/channel/bus_test.go
package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModbus struct {
	slave  *uint8
	seen   []uint8
	data   []byte
	err    error
	fc     []uint8
	closed bool
}

func (f *fakeModbus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	f.seen = append(f.seen, *f.slave)
	f.fc = append(f.fc, 3)
	return f.data, f.err
}

func (f *fakeModbus) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	f.seen = append(f.seen, *f.slave)
	f.fc = append(f.fc, 4)
	return f.data, f.err
}

func newTestBus(f *fakeModbus) *Bus {
	var slave uint8
	f.slave = &slave
	return &Bus{
		client:   f,
		setSlave: func(id uint8) { slave = id },
		close:    func() error { f.closed = true; return nil },
		name:     "test",
	}
}

func TestBus_SetsSlavePerRequest(t *testing.T) {
	f := &fakeModbus{data: []byte{0x41, 0xCC, 0x00, 0x00}}
	b := newTestBus(f)

	regs, err := b.ReadInputRegisters(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x41CC, 0x0000}, regs)

	_, err = b.ReadHoldingRegisters(2, 0x30, 2)
	require.NoError(t, err)

	assert.Equal(t, []uint8{1, 2}, f.seen)
	assert.Equal(t, []uint8{4, 3}, f.fc)
}

func TestBus_PropagatesTransportError(t *testing.T) {
	f := &fakeModbus{err: errors.New("serial: timeout")}
	b := newTestBus(f)

	_, err := b.ReadInputRegisters(5, 0, 4)
	assert.EqualError(t, err, "serial: timeout")
}

func TestBus_OddPayloadRejected(t *testing.T) {
	f := &fakeModbus{data: []byte{0x01, 0x02, 0x03}}
	b := newTestBus(f)

	_, err := b.ReadInputRegisters(1, 0, 2)
	assert.Error(t, err)
}

func TestBus_Close(t *testing.T) {
	f := &fakeModbus{}
	b := newTestBus(f)

	require.NoError(t, b.Close())
	assert.True(t, f.closed)
}

func TestOpen_RejectsIncompleteConfig(t *testing.T) {
	_, err := Open(Config{Kind: KindRTU})
	assert.Error(t, err)

	_, err = Open(Config{Kind: KindTCP})
	assert.Error(t, err)

	_, err = Open(Config{Kind: "usb"})
	assert.Error(t, err)
}
