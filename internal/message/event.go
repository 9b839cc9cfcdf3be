// internal/message/event.go
package message

import (
	"encoding/json"
	"time"

	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// TimeLayout is the broker-facing timestamp format (dd.MM.yyyy HH:mm:ss).
const TimeLayout = "02.01.2006 15:04:05"

// Event is the unit of delivery. Field names and casing are consumed
// by existing subscribers and MUST NOT change.
type Event struct {
	IdMachine    int64   `json:"IdMachine"`
	CNCType      int     `json:"CNCType"`
	Status       int     `json:"Status"`
	Temperature  float32 `json:"Temperature"`
	Temperature2 float32 `json:"Temperature2"`
	Temperature3 float32 `json:"Temperature3"`
	EventTime    string  `json:"EventTime"`
	ServiceName  string  `json:"ServiceName"`
}

// Format maps equipment identity and derived status into an Event.
// An empty serviceName falls back to "<ControllerType>Service".
func Format(e equipment.Equipment, r status.Result, at time.Time, serviceName string) Event {
	if serviceName == "" {
		serviceName = DefaultServiceName(e.Type)
	}
	return Event{
		IdMachine:    e.ID,
		CNCType:      int(e.Type),
		Status:       int(r.Code),
		Temperature:  float32(r.Value),
		Temperature2: float32(r.Aux[0]),
		Temperature3: float32(r.Aux[1]),
		EventTime:    at.Format(TimeLayout),
		ServiceName:  serviceName,
	}
}

// DefaultServiceName names the originating service after the controller type.
func DefaultServiceName(t equipment.ControllerType) string {
	return t.String() + "Service"
}

// Encode serializes the event. The result is immutable once handed to delivery.
func (ev Event) Encode() (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
