package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/relayhub/internal/infrastructure/mqtt"
	"github.com/nerrad567/relayhub/internal/relay"
	"github.com/nerrad567/relayhub/internal/state"
)

// Subscriber is the subset of *mqtt.Client used by CommandIngress.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Commander issues commands to devices. *relay.Engine satisfies it.
type Commander interface {
	IssueCommand(deviceID, command string, value state.Value) (relay.CommandResult, error)
}

// ErrBadControlMessage is returned for control payloads that cannot be routed.
var ErrBadControlMessage = errors.New("telemetry: bad control message")

// controlMessage is the payload expected on a control topic.
type controlMessage struct {
	Command string      `json:"command"`
	Value   state.Value `json:"value"`
}

// CommandIngress routes MQTT control messages into the relay.
type CommandIngress struct {
	sub    Subscriber
	cmd    Commander
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewCommandIngress creates an ingress reading topics.AllControl().
func NewCommandIngress(sub Subscriber, cmd Commander, topics mqtt.Topics, qos byte, logger Logger) *CommandIngress {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CommandIngress{sub: sub, cmd: cmd, topics: topics, qos: qos, logger: logger}
}

// Start subscribes to the control topics.
func (c *CommandIngress) Start() error {
	pattern := c.topics.AllControl()
	if err := c.sub.Subscribe(pattern, c.qos, c.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", pattern, err)
	}
	c.logger.Info("MQTT command ingress subscribed", "topic", pattern)
	return nil
}

func (c *CommandIngress) handle(topic string, payload []byte) error {
	deviceID, ok := c.topics.ControlDeviceID(topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %s", ErrBadControlMessage, topic)
	}

	var msg controlMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrBadControlMessage, err)
	}

	if _, err := c.cmd.IssueCommand(deviceID, msg.Command, msg.Value); err != nil {
		switch {
		case errors.Is(err, relay.ErrDeviceNotConnected):
			c.logger.Debug("MQTT command for offline device", "device_id", deviceID, "command", msg.Command)
			return nil
		case errors.Is(err, relay.ErrInvalidCommand):
			return fmt.Errorf("%w: %w", ErrBadControlMessage, err)
		}
		return err
	}
	c.logger.Debug("MQTT command routed", "device_id", deviceID, "command", msg.Command)
	return nil
}
