// internal/status/derive.go
package status

import (
	"fmt"
	"math"
	"sort"
)

// Engine derives status from readings. Pure: no IO, no state.
type Engine struct {
	// StrictOffline reports non-positive readings as Offline instead of Stopped.
	StrictOffline bool
}

// Derive picks the hottest reading as representative value.
// Value > 0 => Running; otherwise Stopped (or Offline when strict).
func (e Engine) Derive(readings []float64) Result {
	vals := make([]float64, len(readings))
	for i, v := range readings {
		vals[i] = Round1(v)
	}
	sort.Float64s(vals)

	var rep float64
	if len(vals) > 0 {
		rep = vals[len(vals)-1]
	}

	code := Stopped
	switch {
	case rep > 0:
		code = Running
	case e.StrictOffline:
		code = Offline
	}

	return Result{
		Code:        code,
		Value:       rep,
		Description: fmt.Sprintf("%s Temp: %g C", code, rep),
	}
}

// Round1 rounds to one decimal place, the resolution the devices display.
// Negative values that round to zero come back as +0.
func Round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
