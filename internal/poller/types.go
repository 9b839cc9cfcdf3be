// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/pipeline"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// EquipmentResult is the outcome of polling one equipment.
type EquipmentResult struct {
	Equipment equipment.Equipment
	Result    status.Result
	Duration  time.Duration

	// Err is the device failure that forced the equipment offline, if any.
	Err error

	// Payload is the serialized event handed to delivery.
	Payload string
	Outcome pipeline.Outcome
}

// Summary is a snapshot produced by one poll iteration.
type Summary struct {
	At       time.Time
	Duration time.Duration
	Results  []EquipmentResult

	Online  int // equipment read successfully
	Offline int // equipment forced offline

	Published int
	Spooled   int

	// Delivery state after the iteration.
	Pending   int
	Connected bool
}
