// internal/monitor/thermometer.go
package monitor

import (
	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// ZoneSource points an auxiliary zone at one device channel.
// An empty Address leaves the zone at zero.
type ZoneSource struct {
	Address string
	Channel int
}

// Group is one row of the aggregation table: equipment whose primary
// device is Primary also reads Companions, and fills auxiliary zones from Zones.
type Group struct {
	Primary    string
	Companions []string
	Zones      [status.AuxZones]ZoneSource
}

// DefaultGroups is the calcining furnace layout: three zones over two
// two-channel recorders. Device 1 ch1 is unused, ch2 is zone 3;
// device 2 ch1 is zone 2, ch2 is zone 1.
func DefaultGroups() []Group {
	return []Group{{
		Primary:    "1",
		Companions: []string{"2"},
		Zones: [status.AuxZones]ZoneSource{
			{Address: "2", Channel: 1},
			{Address: "1", Channel: 2},
		},
	}}
}

// Thermometer monitors register-based temperature recorders.
type Thermometer struct {
	reader *device.Reader
	engine status.Engine
	groups map[uint8]Group
}

// NewThermometer builds the monitor. Groups with an unparsable primary are ignored;
// config validation rejects them before this point.
func NewThermometer(reader *device.Reader, engine status.Engine, groups []Group) *Thermometer {
	m := &Thermometer{
		reader: reader,
		engine: engine,
		groups: make(map[uint8]Group, len(groups)),
	}
	for _, g := range groups {
		id, err := device.ParseAddress(g.Primary)
		if err != nil {
			continue
		}
		m.groups[id] = g
	}
	return m
}

// Addresses lists every device read for e, primary first.
func (m *Thermometer) Addresses(e equipment.Equipment) []string {
	out := []string{e.Address}
	if g, ok := m.group(e); ok {
		out = append(out, g.Companions...)
	}
	return out
}

// Observe reads all devices of e and derives its status.
func (m *Thermometer) Observe(e equipment.Equipment) (status.Result, error) {
	readings, err := m.reader.ReadAll(m.Addresses(e))
	if err != nil {
		return status.ForcedOffline(), err
	}

	res := m.engine.Derive(readings.Values())

	if g, ok := m.group(e); ok {
		for i, z := range g.Zones {
			if z.Address == "" {
				continue
			}
			if v, ok := readings.Channel(z.Address, z.Channel); ok {
				res.Aux[i] = status.Round1(v)
			}
		}
	}
	return res, nil
}

// Probe reads diagnostics of the primary device.
func (m *Thermometer) Probe(e equipment.Equipment) (device.Info, error) {
	return m.reader.Info(e.Address)
}

func (m *Thermometer) group(e equipment.Equipment) (Group, bool) {
	id, err := device.ParseAddress(e.Address)
	if err != nil {
		return Group{}, false
	}
	g, ok := m.groups[id]
	return g, ok
}
