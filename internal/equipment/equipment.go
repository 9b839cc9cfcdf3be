// internal/equipment/equipment.go
package equipment

import (
	"fmt"
	"sort"
)

// ControllerType tells how a unit is monitored.
// Ordinals are part of the event wire format and MUST NOT change.
type ControllerType int

const (
	Generic ControllerType = iota
	Fanuc
	OpenControl
	CMM
	Laser
	TNC530
	Okuma
	Mitsubishi
	PowerMeter
	Hurco
	Termodat
	KMSMonitor
	KMSMaster
	Paragraph
)

var controllerNames = [...]string{
	Generic:     "Generic",
	Fanuc:       "Fanuc",
	OpenControl: "OpenControl",
	CMM:         "CMM",
	Laser:       "Laser",
	TNC530:      "TNC530",
	Okuma:       "Okuma",
	Mitsubishi:  "Mitsubishi",
	PowerMeter:  "PowerMeter",
	Hurco:       "Hurco",
	Termodat:    "Termodat",
	KMSMonitor:  "KMSMonitor",
	KMSMaster:   "KMSMaster",
	Paragraph:   "Paragraph",
}

// Valid reports whether t is one of the known controller types.
func (t ControllerType) Valid() bool {
	return t >= Generic && t <= Paragraph
}

func (t ControllerType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ControllerType(%d)", int(t))
	}
	return controllerNames[t]
}

// Equipment is one monitored unit.
// Address meaning depends on Type: a serial slave id for register-based
// sensors, a host for networked controllers.
type Equipment struct {
	ID      int64
	Type    ControllerType
	Address string
	Port    int
}

// Roster maps equipment identity to equipment. Read-only after startup.
type Roster map[int64]Equipment

// Ordered returns the roster sorted by identity.
func (r Roster) Ordered() []Equipment {
	out := make([]Equipment, 0, len(r))
	for _, e := range r {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Filter returns a new roster holding only units whose type is accepted.
func (r Roster) Filter(accept func(ControllerType) bool) Roster {
	out := make(Roster, len(r))
	for id, e := range r {
		if accept(e.Type) {
			out[id] = e
		}
	}
	return out
}
