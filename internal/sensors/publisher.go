package sensors

import (
	"encoding/json"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ashaboard/ashaboard/pkg/water"
)

// Publisher sends readings the way a field sensor would. The CLI uses it to
// push manual or test readings.
type Publisher struct {
	client  mqtt.Client
	pattern Pattern
}

// NewPublisher connects to broker. Readings go to topic with the source id
// in its "+" segment; an empty topic means DefaultTopic.
func NewPublisher(broker, clientID, topic string) (*Publisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	pattern, err := ParsePattern(topic)
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetConnectTimeout(connectTimeout)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.New("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Publisher{client: c, pattern: pattern}, nil
}

// Publish sends one reading on the source's topic and waits for the broker
// to acknowledge it.
func (p *Publisher) Publish(sourceID string, r water.Reading) error {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	token := p.client.Publish(p.Topic(sourceID), 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	return nil
}

// Topic is the concrete topic readings for sourceID are published on.
func (p *Publisher) Topic(sourceID string) string {
	return p.pattern.Topic(sourceID)
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
