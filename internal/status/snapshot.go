// internal/status/snapshot.go
package status

// Result is the derived state of one equipment for one poll cycle.
// Created once per cycle, consumed by the formatter, discarded.
type Result struct {
	Code Code

	// Value is the representative reading: the maximum, never an average.
	Value float64

	// Aux holds auxiliary zone values. Zero when not produced.
	Aux [AuxZones]float64

	Description string
}

// ForcedOffline is the result for equipment whose device read failed.
func ForcedOffline() Result {
	return Result{Code: Offline, Description: Offline.String()}
}
