// Package telemetry publishes vehicle state to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"github.com/gwillem/videocar/pkg/teleop"
)

// Config represents the MQTT connection settings.
type Config struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Broker   string `json:"broker" mapstructure:"broker"`
	Port     int    `json:"port" mapstructure:"port"`
	ClientID string `json:"clientId" mapstructure:"clientId"`
	Topic    string `json:"topic" mapstructure:"topic"`
}

// Message is the JSON payload published for each state change.
type Message struct {
	teleop.State
	Source string `json:"source"`
}

// Publisher sends state changes to the broker. Repeated identical states
// are published once.
type Publisher struct {
	client mqtt.Client
	topic  string
	source string
	log    zerolog.Logger

	mu   deadlock.Mutex
	last teleop.State
	sent bool
}

// Dial connects to the broker. The client reconnects on its own after the
// first connection succeeds.
func Dial(cfg Config, log zerolog.Logger) (*Publisher, error) {
	log = log.With().Str("component", "telemetry").Logger()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("connect to %s:%d: timeout", cfg.Broker, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", cfg.Broker, cfg.Port, err)
	}
	return newPublisher(client, cfg, log), nil
}

func newPublisher(client mqtt.Client, cfg Config, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  cfg.Topic,
		source: cfg.ClientID,
		log:    log,
	}
}

// Publish sends s unless it equals the last state sent. It never waits
// for the broker.
func (p *Publisher) Publish(s teleop.State) {
	p.mu.Lock()
	cmp := s
	cmp.Timestamp = p.last.Timestamp
	if p.sent && cmp == p.last {
		p.mu.Unlock()
		return
	}
	p.last, p.sent = s, true
	p.mu.Unlock()

	payload, err := json.Marshal(Message{State: s, Source: p.source})
	if err != nil {
		p.log.Error().Err(err).Msg("Encode state")
		return
	}
	p.client.Publish(p.topic, 0, false, payload)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
