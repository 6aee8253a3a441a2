package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/relayhub/internal/device"
	"github.com/nerrad567/relayhub/internal/state"
)

// Frame type tags.
const (
	// Server to device.
	FrameConfig  = "config"
	FrameCommand = "command"

	// Device to server.
	FrameSensorData = "sensorData"

	// Server to dashboard.
	FrameInitialData        = "initialData"
	FrameSensorUpdate       = "sensorUpdate"
	FrameStateUpdate        = "stateUpdate"
	FrameDeviceDisconnected = "deviceDisconnected"
)

// connectedMessage is the human-readable text of the device config frame.
const connectedMessage = "Connected to relay hub"

// ConfigFrame acknowledges a device connection.
type ConfigFrame struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	DeviceID string `json:"deviceId"`
}

// CommandFrame carries one command to a device.
type CommandFrame struct {
	Type      string      `json:"type"`
	Command   string      `json:"command"`
	Value     state.Value `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// InitialDataFrame is sent once to every new dashboard.
type InitialDataFrame struct {
	Type      string          `json:"type"`
	Devices   []device.Record `json:"devices"`
	Sensors   state.Snapshot  `json:"sensors"`
	Timestamp time.Time       `json:"timestamp"`
}

// SensorUpdateFrame relays the fields a device just reported.
type SensorUpdateFrame struct {
	Type      string       `json:"type"`
	DeviceID  string       `json:"deviceId"`
	Data      state.Fields `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
}

// StateUpdateFrame announces a command issued to a device.
type StateUpdateFrame struct {
	Type      string      `json:"type"`
	DeviceID  string      `json:"deviceId"`
	Command   string      `json:"command"`
	Value     state.Value `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// DeviceDisconnectedFrame announces that a device connection closed.
type DeviceDisconnectedFrame struct {
	Type      string    `json:"type"`
	DeviceID  string    `json:"deviceId"`
	Timestamp time.Time `json:"timestamp"`
}

// inboundFrame is the envelope every peer-sent frame must match.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// parseInbound decodes the envelope. Any failure wraps ErrMalformedFrame.
func parseInbound(raw []byte) (inboundFrame, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return inboundFrame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return f, nil
}

// sensorFields decodes the data member of a sensorData frame.
func (f inboundFrame) sensorFields() (state.Fields, error) {
	if len(f.Data) == 0 || string(f.Data) == "null" {
		return nil, fmt.Errorf("%w: sensorData without data", ErrMalformedFrame)
	}
	var fields state.Fields
	if err := json.Unmarshal(f.Data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return fields, nil
}
