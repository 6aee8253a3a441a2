package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/relayhub/internal/infrastructure/mqtt"
	"github.com/nerrad567/relayhub/internal/state"
)

// Publisher is the subset of *mqtt.Client used by MQTTMirror.
type Publisher interface {
	PublishDefault(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// MQTTMirror publishes relay events to the broker.
type MQTTMirror struct {
	pub    Publisher
	topics mqtt.Topics
}

// NewMQTTMirror creates a mirror publishing under topics.
func NewMQTTMirror(pub Publisher, topics mqtt.Topics) *MQTTMirror {
	return &MQTTMirror{pub: pub, topics: topics}
}

type sensorMessage struct {
	DeviceID  string       `json:"deviceId"`
	Data      state.Fields `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
}

type commandMessage struct {
	DeviceID  string      `json:"deviceId"`
	Command   string      `json:"command"`
	Value     state.Value `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

type statusMessage struct {
	DeviceID  string    `json:"deviceId"`
	Online    bool      `json:"online"`
	Timestamp time.Time `json:"timestamp"`
}

// Name implements Sink.
func (m *MQTTMirror) Name() string { return "mqtt" }

// Handle implements Sink.
func (m *MQTTMirror) Handle(ev Event) error {
	switch ev.Kind {
	case KindSensorData:
		return m.publish(m.topics.Sensor(ev.DeviceID), false, sensorMessage{
			DeviceID: ev.DeviceID, Data: ev.Fields, Timestamp: ev.At,
		})
	case KindCommand:
		return m.publish(m.topics.CommandIssued(ev.DeviceID), false, commandMessage{
			DeviceID: ev.DeviceID, Command: ev.Command, Value: ev.Value, Timestamp: ev.At,
		})
	case KindStatus:
		return m.publish(m.topics.DeviceStatus(ev.DeviceID), true, statusMessage{
			DeviceID: ev.DeviceID, Online: ev.Online, Timestamp: ev.At,
		})
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

func (m *MQTTMirror) publish(topic string, retained bool, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", topic, err)
	}
	if retained {
		return m.pub.PublishRetained(topic, payload)
	}
	return m.pub.PublishDefault(topic, payload)
}
