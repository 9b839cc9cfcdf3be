// internal/inventory/client.go
package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/equipment"
)

const machinesPath = "/api/Monitoring/spr/machines"

// machine is one row of the inventory API response.
type machine struct {
	ID   int64  `json:"id_machine"`
	Host string `json:"host"`
	Port int    `json:"port"`
	Type int    `json:"type"`
}

// Client fetches the equipment roster from the inventory web API.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// New creates an inventory client. No retries: the file roster is the fallback.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: c, log: log}
}

// Machines returns the monitored equipment, optionally filtered by controller type.
// Duplicate ids keep the first occurrence.
func (c *Client) Machines(ctx context.Context, t *equipment.ControllerType) (equipment.Roster, error) {
	req := c.http.R().SetContext(ctx)
	if t != nil {
		req.SetQueryParam("type", strconv.Itoa(int(*t)))
	}

	var rows []machine
	resp, err := req.SetResult(&rows).Get(machinesPath)
	if err != nil {
		return nil, fmt.Errorf("inventory: get machines: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("inventory: get machines: status %d", resp.StatusCode())
	}

	roster := make(equipment.Roster, len(rows))
	for _, m := range rows {
		if _, dup := roster[m.ID]; dup {
			c.log.Warn("inventory: duplicate machine id ignored", zap.Int64("id", m.ID))
			continue
		}
		roster[m.ID] = equipment.Equipment{
			ID:      m.ID,
			Type:    equipment.ControllerType(m.Type),
			Address: strings.TrimSpace(m.Host),
			Port:    m.Port,
		}
	}

	c.log.Info("inventory loaded", zap.Int("machines", len(roster)))
	return roster, nil
}
