package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/roach88/wirelessmesh/internal/config"
	"github.com/roach88/wirelessmesh/internal/ir"
)

// client is the subset of pahomqtt.Client the notifier uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes committed events to an MQTT broker.
// It is safe for concurrent use.
type MQTTNotifier struct {
	client   client
	topics   Topics
	qos      byte
	clientID string
	timeout  time.Duration
	logger   *slog.Logger
}

// Connect dials the broker described by cfg and returns a notifier.
// The initial connection must succeed within the connect timeout; later
// drops are retried by paho in the background.
func Connect(cfg config.MQTTConfig, logger *slog.Logger) (*MQTTNotifier, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notify")

	opts := buildClientOptions(cfg)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(Topics{Prefix: cfg.TopicPrefix}.SystemStatus(), 1, true, statusPayload(cfg.Broker.ClientID, "online"))
		logger.Debug("mqtt connected", "broker", cfg.Broker.Host, "port", cfg.Broker.Port)
	})

	c := pahomqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return newMQTTNotifier(c, cfg, logger), nil
}

func newMQTTNotifier(c client, cfg config.MQTTConfig, logger *slog.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client:   c,
		topics:   Topics{Prefix: cfg.TopicPrefix},
		qos:      byte(cfg.QoS),
		clientID: cfg.Broker.ClientID,
		timeout:  defaultPublishTimeout,
		logger:   logger,
	}
}

// Notify publishes evt to its location event topic and waits for the
// broker acknowledgement, the publish timeout or ctx, whichever comes first.
// Messages are not retained.
func (n *MQTTNotifier) Notify(ctx context.Context, evt ir.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := EncodeEvent(evt)
	if err != nil {
		return err
	}
	topic := n.topics.LocationEvent(evt.EntityID, evt.Type)

	token := n.client.Publish(topic, n.qos, false, payload)

	timer := time.NewTimer(n.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: %s: timeout after %v", ErrPublishFailed, topic, n.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// Close publishes the graceful offline status and disconnects.
func (n *MQTTNotifier) Close() error {
	if n.client.IsConnectionOpen() {
		token := n.client.Publish(n.topics.SystemStatus(), 1, true, statusPayload(n.clientID, "offline"))
		token.WaitTimeout(defaultPublishTimeout)
	}
	n.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}
