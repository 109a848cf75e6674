// Package notify tells remote displays that a new animation is available.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gifscreen/config"
	"gifscreen/display"
)

// VersionMessage is the payload published on every new version.
type VersionMessage struct {
	Version uint64 `json:"version"`
	Frames  int    `json:"frames"`
	DelayMs uint16 `json:"delay_ms"`
	Mode    string `json:"mode"`
	Bytes   int    `json:"bytes"`
}

// NewVersionMessage builds the payload for snap.
func NewVersionMessage(snap display.Snapshot) VersionMessage {
	return VersionMessage{
		Version: snap.Version,
		Frames:  snap.Frames,
		DelayMs: snap.DelayMs,
		Mode:    snap.Mode.String(),
		Bytes:   len(snap.Binary),
	}
}

// MQTTNotifier publishes a retained VersionMessage so that devices which
// subscribe late still get the current version.
type MQTTNotifier struct {
	cfg      config.MQTTConfig
	clientID string
	Client   mqtt.Client

	mu        sync.RWMutex
	published uint64
	errors    uint64
	connected bool
}

func NewMQTTNotifier(cfg config.MQTTConfig, instanceID string) *MQTTNotifier {
	return &MQTTNotifier{
		cfg:      cfg,
		clientID: "gifscreen-" + instanceID,
	}
}

// Connect establishes connection to the MQTT broker
func (n *MQTTNotifier) Connect() error {
	broker := n.cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(n.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		n.setConnected(true)
		slog.Info("mqtt connection established", "broker", broker, "client_id", n.clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		n.setConnected(false)
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", broker)
	}

	n.Client = mqtt.NewClient(opts)
	slog.Info("connecting to mqtt broker", "broker", broker)

	token := n.Client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	n.setConnected(true)
	return nil
}

// Notify is a display.Listener.
func (n *MQTTNotifier) Notify(snap display.Snapshot) {
	if err := n.Publish(NewVersionMessage(snap)); err != nil {
		slog.Warn("version notification failed", "version", snap.Version, "error", err)
	}
}

// Publish sends msg to the configured topic.
func (n *MQTTNotifier) Publish(msg VersionMessage) error {
	if !n.isConnected() {
		n.countError()
		return fmt.Errorf("mqtt not connected")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		n.countError()
		return fmt.Errorf("failed to marshal version message: %w", err)
	}

	token := n.Client.Publish(n.cfg.Topic, n.cfg.QoS, true, payload)
	if !token.WaitTimeout(2 * time.Second) {
		n.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		n.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	n.mu.Lock()
	n.published++
	n.mu.Unlock()
	slog.Debug("version published", "topic", n.cfg.Topic, "version", msg.Version, "size", len(payload))
	return nil
}

// Stats returns the published and failed message counts.
func (n *MQTTNotifier) Stats() (published, errors uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.published, n.errors
}

// Disconnect closes the connection gracefully
func (n *MQTTNotifier) Disconnect() {
	if n.Client != nil && n.Client.IsConnected() {
		n.Client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}
	n.setConnected(false)
}

func (n *MQTTNotifier) setConnected(v bool) {
	n.mu.Lock()
	n.connected = v
	n.mu.Unlock()
}

func (n *MQTTNotifier) isConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *MQTTNotifier) countError() {
	n.mu.Lock()
	n.errors++
	n.mu.Unlock()
}
