// internal/monitor/monitor.go
package monitor

import (
	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// Monitor reads and aggregates one equipment of a given controller type.
// An error means the equipment could not be read this cycle.
type Monitor interface {
	Observe(e equipment.Equipment) (status.Result, error)
}

// Prober is implemented by monitors that can read device diagnostics.
type Prober interface {
	Probe(e equipment.Equipment) (device.Info, error)
}

// Registry dispatches equipment to the monitor for its controller type.
type Registry map[equipment.ControllerType]Monitor

// Supports reports whether a monitor is registered for t.
func (r Registry) Supports(t equipment.ControllerType) bool {
	_, ok := r[t]
	return ok
}

// For returns the monitor for e.
func (r Registry) For(e equipment.Equipment) (Monitor, bool) {
	m, ok := r[e.Type]
	return m, ok
}
