// internal/config/config.go
package config

type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Log         LogConfig         `yaml:"log"`
	Channel     ChannelConfig     `yaml:"channel"`
	Broker      BrokerConfig      `yaml:"broker"`
	Spool       SpoolConfig       `yaml:"spool"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Inventory   InventoryConfig   `yaml:"inventory"`
	Equipment   []EquipmentConfig `yaml:"equipment"`
	Aggregation AggregationConfig `yaml:"aggregation"`
}

// ---- SERVICE ----

type ServiceConfig struct {
	// Name is the event ServiceName. Empty => "<ControllerType>Service".
	Name string `yaml:"name"`

	PollingIntervalS int `yaml:"polling_interval_s"`

	// StrictOffline reports non-positive readings as offline instead of stopped.
	StrictOffline bool `yaml:"strict_offline"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// ---- CHANNEL ----

type ChannelConfig struct {
	Kind string `yaml:"kind"` // rtu|tcp

	// rtu
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N|E|O
	StopBits int    `yaml:"stop_bits"`

	// tcp gateway
	Address string `yaml:"address"`

	TimeoutMs int `yaml:"timeout_ms"`
}

// ---- BROKER ----

type BrokerConfig struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Topic wins over RoutingKey; RoutingKey a.b.c maps to topic a/b/c.
	Topic      string `yaml:"topic"`
	RoutingKey string `yaml:"routing_key"`

	// Exchange is the topic exchange consumers bind to. MQTT publishes can only
	// reach the exchange the broker's MQTT plugin is configured with (MQTTExchange).
	Exchange     string `yaml:"exchange"`
	MQTTExchange string `yaml:"mqtt_exchange"` // default amq.topic
	QoS          uint8  `yaml:"qos"`

	// Publish=false keeps the connection but drops publishes. Default true.
	Publish *bool `yaml:"publish"`

	ConnectTimeoutMs      int `yaml:"connect_timeout_ms"`
	PublishTimeoutMs      int `yaml:"publish_timeout_ms"`
	MaxReconnectIntervalS int `yaml:"max_reconnect_interval_s"`
}

// ---- SPOOL / METRICS ----

type SpoolConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables
}

// ---- INVENTORY ----

type InventoryConfig struct {
	URL            string `yaml:"url"` // empty disables
	ControllerType *int   `yaml:"controller_type"`
	TimeoutMs      int    `yaml:"timeout_ms"`
}

// ---- EQUIPMENT ----

type EquipmentConfig struct {
	ID      int64  `yaml:"id"`
	Type    int    `yaml:"type"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// ---- AGGREGATION ----

// AggregationConfig is the multi-device table.
// Groups omitted => built-in furnace layout; groups: [] => no aggregation.
type AggregationConfig struct {
	Groups []GroupConfig `yaml:"groups"`
}

type GroupConfig struct {
	Primary    string       `yaml:"primary"`
	Companions []string     `yaml:"companions"`
	Zones      []ZoneConfig `yaml:"zones"` // Temperature2, Temperature3
}

type ZoneConfig struct {
	Address string `yaml:"address"`
	Channel int    `yaml:"channel"`
}
