// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/message"
	"github.com/tamzrod/modbus-telemetry/internal/monitor"
	"github.com/tamzrod/modbus-telemetry/internal/pipeline"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// Delivery abstracts the delivery pipeline the poller feeds.
type Delivery interface {
	Deliver(ctx context.Context, payload string) pipeline.Outcome
	EndCycle()
	Pending() int
	Connected() bool
}

// Recorder receives per-iteration observations. Optional.
type Recorder interface {
	DeviceError(equipmentID string)
	EquipmentStatus(equipmentID string, code int)
	Iteration(d time.Duration, brokerConnected bool)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	// ServiceName is stamped on every event; empty means "<ControllerType>Service".
	ServiceName string
	Interval    time.Duration
}

// Poller drives the roster sequentially, one equipment at a time.
type Poller struct {
	cfg      Config
	roster   []equipment.Equipment
	monitors monitor.Registry
	delivery Delivery
	rec      Recorder
	log      *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a poller with immutable config. rec may be nil.
func New(cfg Config, roster equipment.Roster, monitors monitor.Registry, delivery Delivery, log *zap.Logger, rec Recorder) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(roster) == 0 {
		return nil, errors.New("poller: roster is empty")
	}
	if delivery == nil {
		return nil, errors.New("poller: delivery required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Poller{
		cfg:      cfg,
		roster:   roster.Ordered(),
		monitors: monitors,
		delivery: delivery,
		rec:      rec,
		log:      log,
		now:      time.Now,
		sleep:    sleepCtx,
	}, nil
}

// PollOnce performs exactly one iteration over the roster.
// A device failure forces that equipment offline; it never aborts the iteration.
func (p *Poller) PollOnce(ctx context.Context) Summary {
	start := p.now()
	sum := Summary{
		At:      start,
		Results: make([]EquipmentResult, 0, len(p.roster)),
	}

	for _, e := range p.roster {
		r := p.observe(e)

		if r.Err != nil {
			sum.Offline++
		} else {
			sum.Online++
		}

		if r.Payload == "" {
			sum.Results = append(sum.Results, r)
			continue
		}

		switch r.Outcome = p.delivery.Deliver(ctx, r.Payload); r.Outcome {
		case pipeline.Published:
			sum.Published++
		case pipeline.Spooled:
			sum.Spooled++
		}

		sum.Results = append(sum.Results, r)
	}

	p.delivery.EndCycle()

	sum.Duration = p.now().Sub(start)
	sum.Pending = p.delivery.Pending()
	sum.Connected = p.delivery.Connected()
	p.rec.Iteration(sum.Duration, sum.Connected)

	p.log.Info("iteration complete",
		zap.Int("total", len(sum.Results)),
		zap.Int("online", sum.Online),
		zap.Int("offline", sum.Offline),
		zap.Int("published", sum.Published),
		zap.Int("spooled", sum.Spooled),
		zap.Int("spool_depth", sum.Pending),
		zap.Bool("broker_connected", sum.Connected),
		zap.Duration("duration", sum.Duration),
	)
	return sum
}

// observe reads one equipment and serializes its event.
func (p *Poller) observe(e equipment.Equipment) EquipmentResult {
	start := p.now()
	id := strconv.FormatInt(e.ID, 10)

	res, err := p.read(e)
	if err != nil {
		res = status.ForcedOffline()
		p.rec.DeviceError(id)
	}

	at := p.now()
	out := EquipmentResult{
		Equipment: e,
		Result:    res,
		Duration:  at.Sub(start),
		Err:       err,
	}

	payload, encErr := message.Format(e, res, at, p.cfg.ServiceName).Encode()
	if encErr != nil {
		// Dropped from delivery; the event is counted but never queued.
		p.log.Error("event encode failed", zap.Int64("equipment_id", e.ID), zap.Error(encErr))
	}
	out.Payload = payload

	p.rec.EquipmentStatus(id, int(res.Code))

	fields := []zap.Field{
		zap.Int64("equipment_id", e.ID),
		zap.String("type", e.Type.String()),
		zap.String("address", e.Address),
		zap.String("status", res.Code.String()),
		zap.Float64("value", res.Value),
		zap.Duration("duration", out.Duration),
	}
	if err != nil {
		fields = append(fields, zap.String("op", failedOp(err)), zap.Error(err))
		p.log.Warn("equipment read failed", fields...)
	} else {
		p.log.Info("equipment polled", fields...)
	}
	return out
}

func (p *Poller) read(e equipment.Equipment) (status.Result, error) {
	m, ok := p.monitors.For(e)
	if !ok {
		return status.Result{}, fmt.Errorf("no monitor for controller type %s", e.Type)
	}
	return m.Observe(e)
}

// Probe reads diagnostics from every equipment whose monitor supports it.
// Failures are logged and never fatal.
func (p *Poller) Probe() {
	for _, e := range p.roster {
		m, ok := p.monitors.For(e)
		if !ok {
			continue
		}
		pr, ok := m.(monitor.Prober)
		if !ok {
			continue
		}

		info, err := pr.Probe(e)
		if err != nil {
			p.log.Warn("device probe failed",
				zap.Int64("equipment_id", e.ID),
				zap.String("address", e.Address),
				zap.Error(err),
			)
			continue
		}

		fields := []zap.Field{
			zap.Int64("equipment_id", e.ID),
			zap.String("address", e.Address),
			zap.Uint16s("sensor_types", info.SensorTypes),
			zap.Uint16("slave_id", info.SlaveID),
			zap.Uint16("baud", info.Baud),
			zap.Uint16("data_bits", info.DataBits),
			zap.Uint16("parity", info.Parity),
			zap.Uint16("stop_bits", info.StopBits),
		}
		if !info.Clock.IsZero() {
			fields = append(fields, zap.Time("device_clock", info.Clock))
		}
		p.log.Info("device probed", fields...)
	}
}

// failedOp extracts the failing device operation without assuming how deep it is wrapped.
func failedOp(err error) string {
	var de *device.Error
	if errors.As(err, &de) {
		return de.Op
	}
	return "observe"
}

type nopRecorder struct{}

func (nopRecorder) DeviceError(string)            {}
func (nopRecorder) EquipmentStatus(string, int)   {}
func (nopRecorder) Iteration(time.Duration, bool) {}
