// Package notify publishes recognition events to an MQTT broker so
// external systems (dashboards, door displays) can react to sightings.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Notifier publishes sightings to a configured MQTT topic. A Notifier
// with no broker configured is valid and publishes nothing.
type Notifier struct {
	topic  string
	mu     sync.Mutex
	client mqtt.Client
}

// sightingMessage is the wire format of a published sighting event.
type sightingMessage struct {
	Session  string  `json:"session"`
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	At       string  `json:"at"`
	FrameID  uint64  `json:"frame_id"`
}

// New connects to the broker from the configuration. An empty broker URL
// yields a disabled notifier; a connection failure does too, with a log
// line, so a dead broker never blocks recognition.
func New(cfg config.MQTTConfig) *Notifier {
	n := &Notifier{topic: cfg.Topic}
	if cfg.Broker == "" {
		return n
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt broker %s: connection timeout, notifications disabled", cfg.Broker)
		return n
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt broker %s: %v, notifications disabled", cfg.Broker, err)
		return n
	}

	n.client = client
	return n
}

// Enabled reports whether the notifier has a live broker connection.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.client != nil
}

// PublishSighting sends a sighting event to the configured topic.
// Publishing on a disabled notifier is a no-op.
func (n *Notifier) PublishSighting(_ context.Context, s recognition.Sighting) error {
	n.mu.Lock()
	client := n.client
	n.mu.Unlock()

	if client == nil {
		return nil
	}

	payload, err := json.Marshal(sightingMessage{
		Session:  s.SessionID.String(),
		Label:    s.Label,
		Distance: s.Distance,
		At:       s.At.Format(time.RFC3339),
		FrameID:  s.FrameID,
	})
	if err != nil {
		return fmt.Errorf("marshal sighting: %w", err)
	}

	token := client.Publish(n.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout on topic %s", n.topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
	}
	n.client = nil
}
