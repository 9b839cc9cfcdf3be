// internal/status/constants.go
package status

import "fmt"

// Code is the coarse equipment status.
// Ordinals are part of the event wire format and MUST NOT change.
type Code int

const (
	Unknown Code = 0
	Running Code = 1
	Stopped Code = 2
	Idle    Code = 3
	Offline Code = 4
	Online  Code = 5
)

var codeNames = [...]string{
	Unknown: "unknown",
	Running: "running",
	Stopped: "stopped",
	Idle:    "idle",
	Offline: "offline",
	Online:  "online",
}

func (c Code) String() string {
	if c < Unknown || c > Online {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// AuxZones is the number of auxiliary zone values carried next to the representative value.
const AuxZones = 2
