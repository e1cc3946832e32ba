package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridsync/gridsync/core/logger"
	"github.com/gridsync/gridsync/core/metrics"
)

// Config defines the optional cycle-summary publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	Username string `json:"username"`
	Password string `json:"password"`
	QoS      int    `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "gridsync"
	}
	if c.Topic == "" {
		c.Topic = "gridsync/cycles"
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when the publisher is enabled")
	}
	if c.QoS < 0 || c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// Publisher emits one JSON summary per completed ingestion cycle so ops
// tooling can follow the pipeline without querying the store.
type Publisher struct {
	client pahomqtt.Client
	topic  string
	qos    byte
	log    logger.Logger
}

// NewPublisher connects to the broker and returns a Publisher.
func NewPublisher(cfg Config, log logger.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout to %s", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Publisher{client: client, topic: cfg.Topic, qos: byte(cfg.QoS), log: log}, nil
}

// PublishCycle publishes the cycle summary. Publish failures are logged and
// swallowed; the pipeline never depends on the broker.
func (p *Publisher) PublishCycle(ev metrics.CycleEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("marshal cycle event: %v", err)
		return
	}
	tok := p.client.Publish(p.topic, p.qos, false, payload)
	if !tok.WaitTimeout(5 * time.Second) {
		p.log.Warnf("publish timeout on %s", p.topic)
		return
	}
	if err := tok.Error(); err != nil {
		p.log.Errorf("publish cycle summary: %v", err)
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
