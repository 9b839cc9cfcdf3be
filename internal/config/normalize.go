// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/modbus-telemetry/internal/broker"
)

// Defaults applied by Normalize.
const (
	DefaultPollingIntervalS = 10
	DefaultBaudRate         = 9600
	DefaultDataBits         = 8
	DefaultParity           = "N"
	DefaultStopBits         = 1
	DefaultChannelTimeoutMs = 2000
	DefaultSpoolPath        = "LocalQueue.json"
	DefaultConnectTimeoutMs = 5000
	DefaultPublishTimeoutMs = 2000
	DefaultReconnectS       = 30
	DefaultInventoryMs      = 5000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// Polling interval: unset => default, otherwise never below 1s.
	switch {
	case cfg.Service.PollingIntervalS == 0:
		cfg.Service.PollingIntervalS = DefaultPollingIntervalS
	case cfg.Service.PollingIntervalS < 1:
		cfg.Service.PollingIntervalS = 1
	}

	ch := &cfg.Channel
	if ch.Kind == "" {
		ch.Kind = "rtu"
	}
	if ch.BaudRate == 0 {
		ch.BaudRate = DefaultBaudRate
	}
	if ch.DataBits == 0 {
		ch.DataBits = DefaultDataBits
	}
	if ch.Parity == "" {
		ch.Parity = DefaultParity
	}
	if ch.StopBits == 0 {
		ch.StopBits = DefaultStopBits
	}
	if ch.TimeoutMs <= 0 {
		ch.TimeoutMs = DefaultChannelTimeoutMs
	}

	b := &cfg.Broker
	if b.Topic == "" {
		b.Topic = broker.TopicFromRoutingKey(b.RoutingKey)
	}
	if b.MQTTExchange == "" {
		b.MQTTExchange = broker.PluginExchange
	}
	if b.Exchange == "" {
		b.Exchange = b.MQTTExchange
	}
	if b.ConnectTimeoutMs <= 0 {
		b.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if b.PublishTimeoutMs <= 0 {
		b.PublishTimeoutMs = DefaultPublishTimeoutMs
	}
	if b.MaxReconnectIntervalS <= 0 {
		b.MaxReconnectIntervalS = DefaultReconnectS
	}

	if cfg.Spool.Path == "" {
		cfg.Spool.Path = DefaultSpoolPath
	}
	if cfg.Inventory.TimeoutMs <= 0 {
		cfg.Inventory.TimeoutMs = DefaultInventoryMs
	}

	for i := range cfg.Equipment {
		cfg.Equipment[i].Address = strings.TrimSpace(cfg.Equipment[i].Address)
	}
}
