// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-telemetry/internal/broker"
	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	// ------------------------------------------------------------
	// CHANNEL
	// ------------------------------------------------------------

	switch cfg.Channel.Kind {
	case "", "rtu":
		if cfg.Channel.Port == "" {
			return errors.New("channel.port is required for kind rtu")
		}
	case "tcp":
		if cfg.Channel.Address == "" {
			return errors.New("channel.address is required for kind tcp")
		}
	default:
		return fmt.Errorf("channel.kind %q: must be rtu or tcp", cfg.Channel.Kind)
	}

	switch cfg.Channel.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("channel.parity %q: must be N, E or O", cfg.Channel.Parity)
	}

	// ------------------------------------------------------------
	// BROKER
	// ------------------------------------------------------------

	if cfg.Broker.URL == "" {
		return errors.New("broker.url is required")
	}
	if cfg.Broker.Topic == "" && cfg.Broker.RoutingKey == "" {
		return errors.New("broker.topic or broker.routing_key is required")
	}
	if ex := cfg.Broker.Exchange; ex != "" {
		plugin := cfg.Broker.MQTTExchange
		if plugin == "" {
			plugin = broker.PluginExchange
		}
		if ex != plugin {
			return fmt.Errorf("broker.exchange %q: MQTT publishes land on exchange %q; set mqtt.exchange on the broker and broker.mqtt_exchange to %q", ex, plugin, ex)
		}
	}
	if cfg.Broker.QoS > 2 {
		return fmt.Errorf("broker.qos %d: must be 0, 1 or 2", cfg.Broker.QoS)
	}

	// ------------------------------------------------------------
	// ROSTER
	// ------------------------------------------------------------

	if len(cfg.Equipment) == 0 && cfg.Inventory.URL == "" {
		return errors.New("equipment list is empty and no inventory url is set")
	}

	if t := cfg.Inventory.ControllerType; t != nil && !equipment.ControllerType(*t).Valid() {
		return fmt.Errorf("inventory.controller_type %d is not a known controller type", *t)
	}

	seen := make(map[int64]struct{}, len(cfg.Equipment))
	for i, e := range cfg.Equipment {
		if e.ID <= 0 {
			return fmt.Errorf("equipment[%d]: id must be > 0", i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("equipment[%d]: duplicate id %d", i, e.ID)
		}
		seen[e.ID] = struct{}{}

		if !equipment.ControllerType(e.Type).Valid() {
			return fmt.Errorf("equipment %d: type %d is not a known controller type", e.ID, e.Type)
		}
		if e.Address == "" {
			return fmt.Errorf("equipment %d: address is required", e.ID)
		}
	}

	// ------------------------------------------------------------
	// AGGREGATION TABLE
	// ------------------------------------------------------------

	primaries := make(map[uint8]struct{})
	for i, g := range cfg.Aggregation.Groups {
		p, err := device.ParseAddress(g.Primary)
		if err != nil {
			return fmt.Errorf("aggregation.groups[%d]: primary: %w", i, err)
		}
		if _, dup := primaries[p]; dup {
			return fmt.Errorf("aggregation.groups[%d]: primary %d listed twice", i, p)
		}
		primaries[p] = struct{}{}

		members := map[uint8]struct{}{p: {}}
		for _, c := range g.Companions {
			id, err := device.ParseAddress(c)
			if err != nil {
				return fmt.Errorf("aggregation.groups[%d]: companion: %w", i, err)
			}
			members[id] = struct{}{}
		}

		if len(g.Zones) > status.AuxZones {
			return fmt.Errorf("aggregation.groups[%d]: at most %d zones", i, status.AuxZones)
		}
		for j, z := range g.Zones {
			id, err := device.ParseAddress(z.Address)
			if err != nil {
				return fmt.Errorf("aggregation.groups[%d].zones[%d]: %w", i, j, err)
			}
			if _, ok := members[id]; !ok {
				return fmt.Errorf("aggregation.groups[%d].zones[%d]: address %s is not in the group", i, j, z.Address)
			}
			if z.Channel < 1 {
				return fmt.Errorf("aggregation.groups[%d].zones[%d]: channel must be >= 1", i, j)
			}
		}
	}

	return nil
}
