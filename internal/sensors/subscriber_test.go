package sensors

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/dataset"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

func TestSourceIDFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"ashaboard/sources/W1/readings", "W1", true},
		{TopicFor("hand-pump-7"), "hand-pump-7", true},
		{"ashaboard/sources//readings", "", false},
		{"ashaboard/sources/W1/status", "", false},
		{"ashaboard/sources/a/b/readings", "", false},
		{"other/sources/W1/readings", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.topic, func(t *testing.T) {
			id, ok := SourceIDFromTopic(tc.topic)
			if id != tc.wantID || ok != tc.wantOK {
				t.Errorf("SourceIDFromTopic(%q) = %q, %v; want %q, %v", tc.topic, id, ok, tc.wantID, tc.wantOK)
			}
		})
	}
}

func newTestSubscriber(t *testing.T) (*Subscriber, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	err := reg.Replace(&dataset.Dataset{
		Sources: []ranking.WaterSource{
			{ID: "W1", Name: "Village Well", Status: ranking.SourceSafe, Village: "Rampur"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.SensorsConfig{Broker: "tcp://127.0.0.1:1883", Topic: "ashaboard/sources/+/readings", ClientID: "test"}
	s, err := NewSubscriber(cfg, reg, nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	return s, reg
}

func TestHandleMessage(t *testing.T) {
	s, reg := newTestSubscriber(t)

	err := s.HandleMessage("ashaboard/sources/W1/readings", []byte(`{"turbidity":3.4,"pH":7.2,"temperature":27,"condition":"muddy"}`))
	if err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	src, err := reg.GetSource("W1")
	if err != nil {
		t.Fatal(err)
	}
	if src.Status != ranking.SourceWarning {
		t.Errorf("Status = %q, want warning", src.Status)
	}
	if _, ok := reg.LatestReading("W1"); !ok {
		t.Error("expected stored reading")
	}
}

func TestHandleMessageDrops(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{"unexpected topic", "ashaboard/other", `{}`, nil},
		{"malformed payload", "ashaboard/sources/W1/readings", `{"turbidity":`, nil},
		{"unknown source", "ashaboard/sources/W404/readings", `{"turbidity":1,"pH":7}`, registry.ErrNotFound},
		{"impossible reading", "ashaboard/sources/W1/readings", `{"turbidity":-1,"pH":7}`, registry.ErrInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, reg := newTestSubscriber(t)
			before := reg.Version()

			err := s.HandleMessage(tc.topic, []byte(tc.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
			if reg.Version() != before {
				t.Error("dropped message changed the registry")
			}
		})
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestOnMessageCallback(t *testing.T) {
	s, reg := newTestSubscriber(t)

	s.onMessage(nil, fakeMessage{topic: TopicFor("W1"), payload: []byte(`{"turbidity":9,"pH":7}`)})

	src, _ := reg.GetSource("W1")
	if src.Status != ranking.SourceWarning {
		t.Errorf("Status = %q, want warning after unsafe reading", src.Status)
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		topic   string
		wantErr bool
	}{
		{DefaultTopic, false},
		{"village/+/water", false},
		{"+/readings", false},
		{"sensors/+", false},
		{"ashaboard/sources/readings", true},
		{"a/+/b/+", true},
		{"a/#", true},
		{"a/x+/b", true},
		{"", true},
	}
	for _, tc := range tests {
		t.Run(tc.topic, func(t *testing.T) {
			_, err := ParsePattern(tc.topic)
			if (err != nil) != tc.wantErr {
				t.Errorf("ParsePattern(%q) error = %v, wantErr %v", tc.topic, err, tc.wantErr)
			}
		})
	}
}

func TestPatternRoundTrip(t *testing.T) {
	p, err := ParsePattern("village/+/water")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Topic("W1"); got != "village/W1/water" {
		t.Errorf("Topic(W1) = %q", got)
	}
	for topic, want := range map[string]string{
		"village/W1/water":   "W1",
		"village/W1/air":     "",
		"village/W1/water/x": "",
		"village//water":     "",
		"ashaboard/W1/water": "",
	} {
		id, ok := p.SourceID(topic)
		if id != want || ok != (want != "") {
			t.Errorf("SourceID(%q) = %q, %v; want %q", topic, id, ok, want)
		}
	}
}

func TestHandleMessageCustomTopic(t *testing.T) {
	reg := registry.New()
	err := reg.Replace(&dataset.Dataset{
		Sources: []ranking.WaterSource{
			{ID: "W1", Name: "Village Well", Status: ranking.SourceSafe, Village: "Rampur"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.SensorsConfig{Broker: "tcp://127.0.0.1:1883", Topic: "village/+/water", ClientID: "test"}
	s, err := NewSubscriber(cfg, reg, nil, logger)
	if err != nil {
		t.Fatalf("NewSubscriber() error: %v", err)
	}

	if err := s.HandleMessage("village/W1/water", []byte(`{"turbidity":9,"pH":7}`)); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	src, _ := reg.GetSource("W1")
	if src.Status != ranking.SourceWarning {
		t.Errorf("Status = %q, want warning", src.Status)
	}

	if err := s.HandleMessage(TopicFor("W1"), []byte(`{"turbidity":1,"pH":7}`)); err == nil {
		t.Error("default topic should not match a custom subscription")
	}
}

func TestNewSubscriberRejectsBadTopic(t *testing.T) {
	cfg := config.SensorsConfig{Broker: "tcp://127.0.0.1:1883", Topic: "village/water"}
	if _, err := NewSubscriber(cfg, registry.New(), nil, nil); err == nil {
		t.Error("expected error for a topic without a + segment")
	}
}
