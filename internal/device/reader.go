// internal/device/reader.go
package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Channel is the register-read primitive of the shared serial link.
// Implementations MUST serialize requests: the link is half-duplex.
type Channel interface {
	ReadHoldingRegisters(slaveID uint8, addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(slaveID uint8, addr, qty uint16) ([]uint16, error)   // FC 4
}

// PL20Layout is the temperature block of a Paragraph PL20 recorder:
// two channels, input registers starting at 0.
var PL20Layout = Layout{FC: 4, Address: 0x0000, Channels: 2}

// PL20 diagnostic registers.
const (
	regSensorTypes uint16 = 0x30 // holding, 2 regs
	regSerial      uint16 = 0x3E // holding, 5 regs
	regClock       uint16 = 0x0C // input, 7 regs
)

// Reader decodes device readings. It keeps no state across polls and never retries.
type Reader struct {
	ch     Channel
	layout Layout
}

// NewReader creates a reader for devices sharing one layout.
func NewReader(ch Channel, layout Layout) *Reader {
	return &Reader{ch: ch, layout: layout}
}

// ParseAddress converts a roster address into a serial slave id (1..247).
func ParseAddress(address string) (uint8, error) {
	n, err := strconv.Atoi(strings.TrimSpace(address))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrAddressRange, address)
	}
	if n < 1 || n > 247 {
		return 0, fmt.Errorf("%w: %d", ErrAddressRange, n)
	}
	return uint8(n), nil
}

// Read performs the fixed read sequence against one device.
// A channel with no sensor attached decodes as 0 and is not an error.
func (r *Reader) Read(address string) (Readings, error) {
	slave, err := ParseAddress(address)
	if err != nil {
		return nil, &Error{Address: address, Op: "address", Err: err}
	}

	qty := uint16(r.layout.Channels * 2)
	regs, err := r.readRegisters(r.layout.FC, slave, r.layout.Address, qty)
	if err != nil {
		return nil, &Error{Address: address, Op: "read temperatures", Err: err}
	}
	if len(regs) != int(qty) {
		return nil, &Error{
			Address: address,
			Op:      "read temperatures",
			Err:     fmt.Errorf("%w: got %d registers, want %d", ErrMalformed, len(regs), qty),
		}
	}

	out := make(Readings, 0, r.layout.Channels)
	for i, v := range decodeFloats(regs) {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &Error{
				Address: address,
				Op:      "decode temperatures",
				Err:     fmt.Errorf("%w: channel %d is not finite", ErrMalformed, i+1),
			}
		}
		out = append(out, Reading{Address: address, Channel: i + 1, Value: f})
	}
	return out, nil
}

// ReadAll reads every address in order and returns the union of their readings.
// The first failing device fails the whole read.
func (r *Reader) ReadAll(addresses []string) (Readings, error) {
	var out Readings
	for _, a := range addresses {
		rs, err := r.Read(a)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// Info reads the diagnostic block of a PL20-compatible device.
func (r *Reader) Info(address string) (Info, error) {
	slave, err := ParseAddress(address)
	if err != nil {
		return Info{}, &Error{Address: address, Op: "address", Err: err}
	}

	var info Info

	sensors, err := r.readExact(3, slave, regSensorTypes, 2)
	if err != nil {
		return Info{}, &Error{Address: address, Op: "read sensor types", Err: err}
	}
	info.SensorTypes = sensors

	serial, err := r.readExact(3, slave, regSerial, 5)
	if err != nil {
		return Info{}, &Error{Address: address, Op: "read serial settings", Err: err}
	}
	info.SlaveID = serial[0]
	info.Baud = serial[1]
	info.DataBits = serial[2]
	info.Parity = serial[3]
	info.StopBits = serial[4]

	rtc, err := r.readExact(4, slave, regClock, 7)
	if err != nil {
		return Info{}, &Error{Address: address, Op: "read clock", Err: err}
	}
	info.Clock = decodeClock(rtc)

	return info, nil
}

func (r *Reader) readRegisters(fc uint8, slave uint8, addr, qty uint16) ([]uint16, error) {
	switch fc {
	case 3:
		return r.ch.ReadHoldingRegisters(slave, addr, qty)
	case 4:
		return r.ch.ReadInputRegisters(slave, addr, qty)
	default:
		return nil, fmt.Errorf("unsupported function code %d", fc)
	}
}

func (r *Reader) readExact(fc uint8, slave uint8, addr, qty uint16) ([]uint16, error) {
	regs, err := r.readRegisters(fc, slave, addr, qty)
	if err != nil {
		return nil, err
	}
	if len(regs) != int(qty) {
		return nil, fmt.Errorf("%w: got %d registers, want %d", ErrMalformed, len(regs), qty)
	}
	return regs, nil
}

// decodeClock maps the RTC block: sec, min, hour, weekday, day, month, year (2 digits).
func decodeClock(rtc []uint16) time.Time {
	sec, minute, hour := int(rtc[0]), int(rtc[1]), int(rtc[2])
	day, month, year := int(rtc[4]), int(rtc[5]), 2000+int(rtc[6])

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.Local)
}
