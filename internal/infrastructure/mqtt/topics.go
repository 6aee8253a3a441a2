package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every relay hub topic.
const DefaultTopicPrefix = "relayhub"

// Topics builds relay hub MQTT topics under a configurable prefix.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics("relayhub")
//	topics.Sensor("esp32-sensor-01")
//	// Returns: "relayhub/sensor/esp32-sensor-01"
type Topics struct {
	Prefix string
}

// NewTopics returns a builder for prefix, or DefaultTopicPrefix when empty.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Sensor returns the topic carrying sensor readings reported by a device.
//
// Example: relayhub/sensor/esp32-sensor-01
func (t Topics) Sensor(deviceID string) string {
	return fmt.Sprintf("%s/sensor/%s", t.root(), deviceID)
}

// CommandIssued returns the topic announcing a command sent to a device.
//
// Example: relayhub/command/esp32-actuator-01/issued
func (t Topics) CommandIssued(deviceID string) string {
	return fmt.Sprintf("%s/command/%s/issued", t.root(), deviceID)
}

// DeviceStatus returns the retained online/offline topic for a device.
//
// Example: relayhub/status/esp32-sensor-01
func (t Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/status/%s", t.root(), deviceID)
}

// Control returns the inbound command topic for a device.
//
// Example: relayhub/control/esp32-actuator-01
func (t Topics) Control(deviceID string) string {
	return fmt.Sprintf("%s/control/%s", t.root(), deviceID)
}

// AllControl returns a pattern matching every inbound command topic.
//
// Pattern: relayhub/control/+
func (t Topics) AllControl() string {
	return fmt.Sprintf("%s/control/+", t.root())
}

// SystemStatus returns the hub's own status topic (LWT target).
//
// Example: relayhub/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}

// ControlDeviceID extracts the device id from a control topic.
func (t Topics) ControlDeviceID(topic string) (string, bool) {
	prefix := t.root() + "/control/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
