package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"tempcast/internal/config"
	"tempcast/internal/modules/weather/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var errStopped = errors.New("subscriber stopped")

// Plausible air temperature bounds, in °C.
const (
	minTemperature = -90.0
	maxTemperature = 60.0
)

type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// MessageHandler is called for each valid telemetry message
	MessageHandler func(telemetry types.Telemetry) error
}

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler func(telemetry types.Telemetry) error)
}

// SetMessageHandler sets the message handler for telemetry messages
func (s *Subscriber) SetMessageHandler(handler func(telemetry types.Telemetry) error) {
	s.MessageHandler = handler
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) (*Subscriber, error) {
	if cfg.MQTTTopic == "" {
		return nil, fmt.Errorf("mqtt topic is empty")
	}
	s := &Subscriber{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	s.client = mqtt.NewClient(s.clientOptions())
	return s, nil
}

func (s *Subscriber) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL(s.cfg)).
		SetClientID(s.cfg.MQTTClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(60 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second)

	// Resubscribe on every (re)connect: the session is clean.
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		s.logger.Info("mqtt connected", "broker", s.cfg.MQTTBroker, "port", s.cfg.MQTTPort)
		if err := s.subscribe(); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", s.cfg.MQTTTopic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn("mqtt connection lost", "error", err)
	})
	return opts
}

func brokerURL(cfg config.Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
}

// Connect blocks until the broker accepts the connection, ctx is done or
// Disconnect is called.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errStopped
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return errStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe() error {
	topic := s.cfg.MQTTTopic
	const qos = byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var telemetry types.Telemetry
	if err := json.Unmarshal(payload, &telemetry); err != nil {
		s.logger.Warn("failed to parse telemetry message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if err := validateTelemetry(telemetry); err != nil {
		s.logger.Warn("invalid telemetry message",
			"topic", topic,
			"timestamp", telemetry.Timestamp,
			"error", err,
		)
		return
	}

	if s.MessageHandler != nil {
		if err := s.MessageHandler(telemetry); err != nil {
			s.logger.Error("message handler failed",
				"topic", topic,
				"timestamp", telemetry.Timestamp,
				"error", err,
			)
		} else {
			s.logger.Debug("processed telemetry message", "timestamp", telemetry.Timestamp)
		}
	}
}

func validateTelemetry(t types.Telemetry) error {
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if t.Temperature != nil {
		if math.IsNaN(*t.Temperature) || *t.Temperature < minTemperature || *t.Temperature > maxTemperature {
			return fmt.Errorf("temperature_c out of range: %f (must be %g to %g)", *t.Temperature, minTemperature, maxTemperature)
		}
	}

	if t.Humidity != nil {
		if math.IsNaN(*t.Humidity) || *t.Humidity < 0 || *t.Humidity > 100 {
			return fmt.Errorf("humidity_pct out of range: %f (must be 0-100)", *t.Humidity)
		}
	}

	if t.Temperature == nil && t.Humidity == nil {
		return fmt.Errorf("at least one sensor reading (temperature or humidity) is required")
	}

	return nil
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.client.IsConnected()
}

// Disconnect unsubscribes and closes the connection. Safe to call more than
// once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.client == nil {
		return
	}

	if s.IsConnected() {
		s.client.Unsubscribe(s.cfg.MQTTTopic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
