// internal/config/load.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-telemetry/internal/equipment"
)

// Load reads and parses a YAML config file. It does not validate.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Roster builds the equipment roster from the file entries.
func (c *Config) Roster() equipment.Roster {
	r := make(equipment.Roster, len(c.Equipment))
	for _, e := range c.Equipment {
		r[e.ID] = equipment.Equipment{
			ID:      e.ID,
			Type:    equipment.ControllerType(e.Type),
			Address: e.Address,
			Port:    e.Port,
		}
	}
	return r
}

// PublishEnabled resolves the publish flag (default true).
func (b BrokerConfig) PublishEnabled() bool {
	return b.Publish == nil || *b.Publish
}
