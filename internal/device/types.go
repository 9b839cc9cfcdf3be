// internal/device/types.go
package device

import "time"

// Reading is one decoded value from one device channel.
// Channel is 1-based, matching the device front panel.
type Reading struct {
	Address string
	Channel int
	Value   float64
}

// Readings is the union of readings from one or more devices, in read order.
type Readings []Reading

// Values returns the bare magnitudes in read order.
func (rs Readings) Values() []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Value
	}
	return out
}

// Channel looks up the reading for one device channel.
func (rs Readings) Channel(address string, channel int) (float64, bool) {
	for _, r := range rs {
		if r.Address == address && r.Channel == channel {
			return r.Value, true
		}
	}
	return 0, false
}

// Layout describes where a device keeps its float channels.
// Geometry only: two registers per channel, high register first.
type Layout struct {
	FC       uint8 // 3 or 4
	Address  uint16
	Channels int
}

// Info is the diagnostic block of a device.
type Info struct {
	SensorTypes []uint16

	SlaveID  uint16
	Baud     uint16
	DataBits uint16
	Parity   uint16
	StopBits uint16

	// Clock is the device RTC, zero if the device reported an invalid date.
	Clock time.Time
}
