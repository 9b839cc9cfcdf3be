// internal/message/event_test.go
package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

var at = time.Date(2026, time.March, 7, 9, 5, 3, 0, time.Local)

func TestFormat_FieldMapping(t *testing.T) {
	e := equipment.Equipment{ID: 42, Type: equipment.Paragraph, Address: "1"}
	r := status.Result{Code: status.Running, Value: 702.9, Aux: [2]float64{655.1, 640.2}}

	ev := Format(e, r, at, "ParagraphService")

	assert.Equal(t, int64(42), ev.IdMachine)
	assert.Equal(t, 13, ev.CNCType)
	assert.Equal(t, 1, ev.Status)
	assert.InDelta(t, 702.9, ev.Temperature, 1e-3)
	assert.InDelta(t, 655.1, ev.Temperature2, 1e-3)
	assert.InDelta(t, 640.2, ev.Temperature3, 1e-3)
	assert.Equal(t, "07.03.2026 09:05:03", ev.EventTime)
	assert.Equal(t, "ParagraphService", ev.ServiceName)
}

func TestFormat_DefaultsAuxAndServiceName(t *testing.T) {
	e := equipment.Equipment{ID: 5, Type: equipment.Paragraph, Address: "5"}

	ev := Format(e, status.ForcedOffline(), at, "")

	assert.Equal(t, 4, ev.Status)
	assert.Zero(t, ev.Temperature)
	assert.Zero(t, ev.Temperature2)
	assert.Zero(t, ev.Temperature3)
	assert.Equal(t, "ParagraphService", ev.ServiceName)
}

func TestEncode_WireFormat(t *testing.T) {
	e := equipment.Equipment{ID: 7, Type: equipment.Paragraph}
	r := status.Result{Code: status.Running, Value: 25.5}

	s, err := Format(e, r, at, "svc").Encode()
	require.NoError(t, err)

	assert.Equal(t,
		`{"IdMachine":7,"CNCType":13,"Status":1,"Temperature":25.5,"Temperature2":0,"Temperature3":0,"EventTime":"07.03.2026 09:05:03","ServiceName":"svc"}`,
		s,
	)
}

func TestEncode_NegativeZeroReadingIsPlainZero(t *testing.T) {
	e := equipment.Equipment{ID: 7, Type: equipment.Paragraph}
	r := status.Engine{}.Derive([]float64{-0.02})

	s, err := Format(e, r, at, "svc").Encode()
	require.NoError(t, err)

	assert.Contains(t, s, `"Temperature":0,`)
	assert.NotContains(t, s, "-0")
}
