// internal/broker/client.go
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned when no broker connection is open.
	ErrNotConnected = errors.New("broker: not connected")

	// ErrTimeout is returned when the broker does not answer in time.
	ErrTimeout = errors.New("broker: timeout")
)

// Config is the broker connection config.
type Config struct {
	URL      string // tcp://host:1883
	ClientID string
	Username string
	Password string

	Topic string
	QoS   byte

	// Exchange is where the broker routes Topic. Informational.
	Exchange string

	// Publish=false keeps the connection but turns publishes into no-ops.
	Publish bool

	ConnectTimeout       time.Duration
	PublishTimeout       time.Duration
	MaxReconnectInterval time.Duration
}

// Client is one broker connection for the process lifetime.
// Reconnection is left to the MQTT library; callers only observe Connected.
type Client struct {
	mc  mqtt.Client
	cfg Config
	log *zap.Logger
}

// Dial connects to the broker. Failure to connect is returned, not retried.
func Dial(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("broker: url required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = NewClientID("telemetry")
	}

	mc := mqtt.NewClient(clientOptions(cfg, log))

	token := mc.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("broker: connect %s: %w", cfg.URL, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("broker: connect %s: %w", cfg.URL, err)
	}

	return newClient(mc, cfg, log), nil
}

func newClient(mc mqtt.Client, cfg Config, log *zap.Logger) *Client {
	return &Client{mc: mc, cfg: cfg, log: log}
}

func clientOptions(cfg Config, log *zap.Logger) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("broker connected",
			zap.String("url", cfg.URL),
			zap.String("exchange", cfg.Exchange),
			zap.String("topic", cfg.Topic),
		)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("broker connection lost", zap.String("url", cfg.URL), zap.Error(err))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Info("broker reconnecting", zap.String("url", cfg.URL))
	})

	return opts
}

// NewClientID builds a unique client id for this process.
func NewClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// PluginExchange is the exchange RabbitMQ's MQTT plugin publishes to unless
// the broker sets mqtt.exchange.
const PluginExchange = "amq.topic"

// TopicFromRoutingKey maps an AMQP-style routing key (a.b.c) to an MQTT topic (a/b/c).
func TopicFromRoutingKey(routingKey string) string {
	return strings.ReplaceAll(routingKey, ".", "/")
}

// Connected reports whether the broker connection is open right now.
// It is false while the library is reconnecting.
func (c *Client) Connected() bool {
	return c.mc.IsConnectionOpen()
}

// Publish hands one payload to the broker. It does not wait for delivery
// confirmation beyond the library accepting the packet.
func (c *Client) Publish(ctx context.Context, payload []byte) error {
	if !c.cfg.Publish {
		return nil
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	token := c.mc.Publish(c.cfg.Topic, c.cfg.QoS, false, payload)

	timer := time.NewTimer(c.cfg.PublishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("broker: publish %s: %w", c.cfg.Topic, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("broker: publish %s: %w", c.cfg.Topic, ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, allowing in-flight work 250ms to finish.
func (c *Client) Close() {
	c.mc.Disconnect(250)
	c.log.Info("broker disconnected", zap.String("url", c.cfg.URL))
}
