// internal/poller/builder.go
package poller

import (
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/config"
	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/monitor"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// Monitors builds the controller-type registry over one shared channel.
// Only Paragraph recorders are monitored; other controller types are left to
// their own services.
func Monitors(c *config.Config, ch device.Channel) monitor.Registry {
	thermo := monitor.NewThermometer(
		device.NewReader(ch, device.PL20Layout),
		status.Engine{StrictOffline: c.Service.StrictOffline},
		Groups(c.Aggregation),
	)
	return monitor.Registry{
		equipment.Paragraph: thermo,
	}
}

// Groups converts the aggregation table. Omitted groups mean the built-in
// layout; an explicit empty list means no aggregation.
func Groups(a config.AggregationConfig) []monitor.Group {
	if a.Groups == nil {
		return monitor.DefaultGroups()
	}

	out := make([]monitor.Group, 0, len(a.Groups))
	for _, g := range a.Groups {
		mg := monitor.Group{
			Primary:    g.Primary,
			Companions: append([]string(nil), g.Companions...),
		}
		for i, z := range g.Zones {
			if i >= status.AuxZones {
				break
			}
			mg.Zones[i] = monitor.ZoneSource{Address: z.Address, Channel: z.Channel}
		}
		out = append(out, mg)
	}
	return out
}

// Build constructs a Poller for an already filtered roster.
// The channel is owned by the caller and released there.
func Build(c *config.Config, ch device.Channel, roster equipment.Roster, delivery Delivery, log *zap.Logger, rec Recorder) (*Poller, error) {
	return New(
		Config{
			ServiceName: c.Service.Name,
			Interval:    time.Duration(c.Service.PollingIntervalS) * time.Second,
		},
		roster,
		Monitors(c, ch),
		delivery,
		log,
		rec,
	)
}
