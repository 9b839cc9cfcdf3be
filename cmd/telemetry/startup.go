// cmd/telemetry/startup.go
package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/broker"
	"github.com/tamzrod/modbus-telemetry/internal/channel"
	"github.com/tamzrod/modbus-telemetry/internal/config"
	"github.com/tamzrod/modbus-telemetry/internal/device"
	"github.com/tamzrod/modbus-telemetry/internal/equipment"
	"github.com/tamzrod/modbus-telemetry/internal/inventory"
	"github.com/tamzrod/modbus-telemetry/internal/pipeline"
	"github.com/tamzrod/modbus-telemetry/internal/poller"
)

// brokerConn is the broker connection run holds for the process lifetime.
type brokerConn interface {
	pipeline.Publisher
	Close()
}

// busConn is the device channel run holds for the process lifetime.
type busConn interface {
	device.Channel
	Name() string
	Close() error
}

// startup holds the constructors for resources whose absence aborts startup.
type startup struct {
	dialBroker  func(broker.Config, *zap.Logger) (brokerConn, error)
	openChannel func(channel.Config) (busConn, error)
}

func processStartup() startup {
	return startup{
		dialBroker: func(c broker.Config, log *zap.Logger) (brokerConn, error) {
			bc, err := broker.Dial(c, log)
			if err != nil {
				return nil, err
			}
			return bc, nil
		},
		openChannel: func(c channel.Config) (busConn, error) {
			bus, err := channel.Open(c)
			if err != nil {
				return nil, err
			}
			return bus, nil
		},
	}
}

// monitoredRoster drops equipment no monitor serves. An empty result is fatal.
func monitoredRoster(cfg *config.Config, roster equipment.Roster, log *zap.Logger) (equipment.Roster, error) {
	// Support depends on controller type alone; no channel is needed yet.
	supported := poller.Monitors(cfg, nil)

	monitored := roster.Filter(supported.Supports)
	for _, e := range roster.Ordered() {
		if _, ok := monitored[e.ID]; !ok {
			log.Warn("equipment skipped, controller type not monitored",
				zap.Int64("equipment_id", e.ID),
				zap.String("type", e.Type.String()),
			)
		}
	}
	if len(monitored) == 0 {
		return nil, errors.New("roster is empty: no monitored equipment")
	}
	return monitored, nil
}

func brokerConfig(cfg *config.Config) broker.Config {
	clientID := cfg.Broker.ClientID
	if clientID == "" {
		prefix := cfg.Service.Name
		if prefix == "" {
			prefix = "telemetry"
		}
		clientID = broker.NewClientID(prefix)
	}

	return broker.Config{
		URL:                  cfg.Broker.URL,
		ClientID:             clientID,
		Username:             cfg.Broker.Username,
		Password:             cfg.Broker.Password,
		Topic:                cfg.Broker.Topic,
		Exchange:             cfg.Broker.Exchange,
		QoS:                  cfg.Broker.QoS,
		Publish:              cfg.Broker.PublishEnabled(),
		ConnectTimeout:       time.Duration(cfg.Broker.ConnectTimeoutMs) * time.Millisecond,
		PublishTimeout:       time.Duration(cfg.Broker.PublishTimeoutMs) * time.Millisecond,
		MaxReconnectInterval: time.Duration(cfg.Broker.MaxReconnectIntervalS) * time.Second,
	}
}

func channelConfig(cfg *config.Config) channel.Config {
	return channel.Config{
		Kind:     cfg.Channel.Kind,
		Port:     cfg.Channel.Port,
		BaudRate: cfg.Channel.BaudRate,
		DataBits: cfg.Channel.DataBits,
		Parity:   cfg.Channel.Parity,
		StopBits: cfg.Channel.StopBits,
		Address:  cfg.Channel.Address,
		Timeout:  time.Duration(cfg.Channel.TimeoutMs) * time.Millisecond,
	}
}

// refreshRoster replaces the file roster with the inventory one when the
// inventory answers with a non-empty list.
func refreshRoster(ctx context.Context, c config.InventoryConfig, fallback equipment.Roster, log *zap.Logger) equipment.Roster {
	inv := inventory.New(c.URL, time.Duration(c.TimeoutMs)*time.Millisecond, log)

	var typ *equipment.ControllerType
	if c.ControllerType != nil {
		t := equipment.ControllerType(*c.ControllerType)
		typ = &t
	}

	r, err := inv.Machines(ctx, typ)
	switch {
	case err != nil:
		log.Warn("inventory unavailable, using configured roster", zap.Error(err))
		return fallback
	case len(r) == 0:
		log.Warn("inventory returned no equipment, using configured roster")
		return fallback
	}

	log.Info("roster loaded from inventory", zap.Int("equipment", len(r)))
	return r
}
