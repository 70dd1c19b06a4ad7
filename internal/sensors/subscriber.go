// Package sensors feeds water-quality readings published by field sensors
// over MQTT into the registry.
package sensors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ashaboard/ashaboard/internal/observability"
	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/ranking"
	"github.com/ashaboard/ashaboard/pkg/water"
)

// DefaultTopic is the subscription used when none is configured. The "+"
// segment stands for the source id.
const DefaultTopic = "ashaboard/sources/+/readings"

const connectTimeout = 10 * time.Second

var defaultPattern = mustParsePattern(DefaultTopic)

// Pattern is a subscription topic with exactly one "+" segment, which holds
// the source id. Multi-level "#" wildcards are not allowed.
type Pattern struct {
	raw    string
	before []string
	after  []string
}

// ParsePattern checks a subscription topic and locates its id segment.
func ParsePattern(topic string) (Pattern, error) {
	segments := strings.Split(topic, "/")
	at := -1
	for i, seg := range segments {
		switch {
		case seg == "+":
			if at >= 0 {
				return Pattern{}, fmt.Errorf("topic %q: more than one + segment", topic)
			}
			at = i
		case strings.ContainsAny(seg, "+#"):
			return Pattern{}, fmt.Errorf("topic %q: unsupported wildcard in %q", topic, seg)
		}
	}
	if at < 0 {
		return Pattern{}, fmt.Errorf("topic %q: needs one + segment for the source id", topic)
	}
	return Pattern{raw: topic, before: segments[:at], after: segments[at+1:]}, nil
}

func mustParsePattern(topic string) Pattern {
	p, err := ParsePattern(topic)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

// Topic fills the id segment with sourceID.
func (p Pattern) Topic(sourceID string) string {
	segments := make([]string, 0, len(p.before)+1+len(p.after))
	segments = append(segments, p.before...)
	segments = append(segments, sourceID)
	segments = append(segments, p.after...)
	return strings.Join(segments, "/")
}

// SourceID extracts the id from a concrete topic matching the pattern.
func (p Pattern) SourceID(topic string) (string, bool) {
	segments := strings.Split(topic, "/")
	if len(segments) != len(p.before)+1+len(p.after) {
		return "", false
	}
	for i, seg := range p.before {
		if segments[i] != seg {
			return "", false
		}
	}
	for i, seg := range p.after {
		if segments[len(p.before)+1+i] != seg {
			return "", false
		}
	}
	id := segments[len(p.before)]
	if id == "" || strings.ContainsAny(id, "+#") {
		return "", false
	}
	return id, true
}

// TopicFor returns the default readings topic of a source.
func TopicFor(sourceID string) string {
	return defaultPattern.Topic(sourceID)
}

// SourceIDFromTopic extracts the source id from a default readings topic.
func SourceIDFromTopic(topic string) (string, bool) {
	return defaultPattern.SourceID(topic)
}

// ReadingRecorder applies a reading to a water source.
type ReadingRecorder interface {
	RecordReading(sourceID string, r water.Reading) (ranking.WaterSource, water.Assessment, error)
}

// Subscriber listens for sensor readings.
type Subscriber struct {
	client   mqtt.Client
	pattern  Pattern
	recorder ReadingRecorder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewSubscriber configures a client for cfg.Broker. It does not connect.
// An empty cfg.Topic means DefaultTopic.
func NewSubscriber(cfg config.SensorsConfig, recorder ReadingRecorder, metrics *observability.Metrics, logger *slog.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	pattern, err := ParsePattern(topic)
	if err != nil {
		return nil, err
	}
	s := &Subscriber{
		pattern:  pattern,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger.With("component", "sensors"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.logger.Warn("mqtt connection lost", "error", err)
		})
	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Start connects to the broker. The subscription is (re)established by the
// connect handler, so it survives reconnects.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects, giving in-flight work a quarter second.
func (s *Subscriber) Stop() {
	s.client.Disconnect(250)
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	topic := s.pattern.String()
	token := c.Subscribe(topic, 1, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error("mqtt subscribe failed", "topic", topic, "error", err)
		return
	}
	s.logger.Info("subscribed to sensor readings", "topic", topic)
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// Errors are already logged and counted.
	_ = s.HandleMessage(msg.Topic(), msg.Payload())
}

// HandleMessage decodes one reading and records it. Bad payloads and unknown
// sources are logged and dropped.
func (s *Subscriber) HandleMessage(topic string, payload []byte) error {
	id, ok := s.pattern.SourceID(topic)
	if !ok {
		s.metrics.SensorMessage("rejected")
		s.logger.Warn("ignoring reading on unexpected topic", "topic", topic)
		return fmt.Errorf("unexpected topic %q", topic)
	}

	var reading water.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		s.metrics.SensorMessage("rejected")
		s.logger.Warn("dropping malformed reading", "source", id, "error", err)
		return fmt.Errorf("decode reading for %s: %w", id, err)
	}

	src, assessment, err := s.recorder.RecordReading(id, reading)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, registry.ErrNotFound) {
			outcome = "unknown_source"
		}
		s.metrics.SensorMessage(outcome)
		s.logger.Warn("dropping reading", "source", id, "error", err)
		return err
	}

	s.metrics.SensorMessage("applied")
	s.logger.Info("reading applied",
		"source", id,
		"village", src.Village,
		"quality", assessment.Overall,
		"status", src.Status)
	return nil
}
