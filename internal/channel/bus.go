// internal/channel/bus.go
package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Kinds of physical channel.
const (
	KindRTU = "rtu" // serial port, RS-485
	KindTCP = "tcp" // Ethernet to RS-485 gateway
)

// Config is the channel transport config.
type Config struct {
	Kind string

	// RTU
	Port     string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int

	// TCP
	Address string

	Timeout time.Duration
}

// registerReader is the subset of modbus.Client the bus uses.
type registerReader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// Bus is the one shared half-duplex link to every device.
// It serializes requests because it mutates the slave id per request.
type Bus struct {
	mu       sync.Mutex
	client   registerReader
	setSlave func(uint8)
	close    func() error
	name     string
}

// Open connects the channel. Failure is a startup error.
func Open(cfg Config) (*Bus, error) {
	switch cfg.Kind {
	case KindRTU, "":
		if cfg.Port == "" {
			return nil, errors.New("channel: serial port required")
		}
		h := modbus.NewRTUClientHandler(cfg.Port)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout

		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("channel: open %s: %w", cfg.Port, err)
		}
		return &Bus{
			client:   modbus.NewClient(h),
			setSlave: func(id uint8) { h.SlaveId = id },
			close:    h.Close,
			name:     cfg.Port,
		}, nil

	case KindTCP:
		if cfg.Address == "" {
			return nil, errors.New("channel: gateway address required")
		}
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.Timeout = cfg.Timeout

		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("channel: connect %s: %w", cfg.Address, err)
		}
		return &Bus{
			client:   modbus.NewClient(h),
			setSlave: func(id uint8) { h.SlaveId = id },
			close:    h.Close,
			name:     cfg.Address,
		}, nil

	default:
		return nil, fmt.Errorf("channel: unknown kind %q", cfg.Kind)
	}
}

// Name identifies the port or gateway, for logs.
func (b *Bus) Name() string { return b.name }

// Close releases the port.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.close == nil {
		return nil
	}
	return b.close()
}

// ReadHoldingRegisters reads FC 3 from one slave.
func (b *Bus) ReadHoldingRegisters(slaveID uint8, addr, qty uint16) ([]uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setSlave(slaveID)
	raw, err := b.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw)
}

// ReadInputRegisters reads FC 4 from one slave.
func (b *Bus) ReadInputRegisters(slaveID uint8, addr, qty uint16) ([]uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setSlave(slaveID)
	raw, err := b.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw)
}

// unpackRegisters splits a register payload, big-endian per register.
func unpackRegisters(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("channel: register payload length not even")
	}
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}
