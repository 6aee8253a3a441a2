package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/relayhub/internal/device"
	"github.com/nerrad567/relayhub/internal/state"
)

// Health is the liveness summary reported by the REST surface.
type Health struct {
	Status               string    `json:"status"`
	Timestamp            time.Time `json:"timestamp"`
	DeviceConnections    int       `json:"deviceConnections"`
	DashboardConnections int       `json:"webConnections"`
}

// CommandResult describes a command that was queued for a device.
type CommandResult struct {
	DeviceID  string      `json:"deviceId"`
	Command   string      `json:"command"`
	Value     state.Value `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// Health returns the current connection counts.
func (e *Engine) Health() Health {
	return Health{
		Status:               "ok",
		Timestamp:            e.now().UTC(),
		DeviceConnections:    e.conns.DeviceCount(),
		DashboardConnections: e.conns.DashboardCount(),
	}
}

// ListDevices returns the static device records with their presence.
func (e *Engine) ListDevices() []device.Record {
	return e.devices.List()
}

// CurrentState returns a copy of the shared state.
func (e *Engine) CurrentState() state.Snapshot {
	return e.state.Snapshot()
}

// IssueCommand sends a command to a connected device, applies it to the
// shared state when the field exists, and tells every dashboard.
//
// State is left untouched when the device cannot be reached. An unconnected
// device is reported as ErrDeviceNotConnected whatever the command looks like.
func (e *Engine) IssueCommand(deviceID, command string, value state.Value) (CommandResult, error) {
	c, ok := e.conns.LookupDevice(deviceID)
	if !ok || !c.IsOpen() {
		return CommandResult{}, fmt.Errorf("%w: %s", ErrDeviceNotConnected, deviceID)
	}
	if command == "" {
		return CommandResult{}, fmt.Errorf("%w: command is required", ErrInvalidCommand)
	}
	if !value.IsValid() {
		return CommandResult{}, fmt.Errorf("%w: value is required", ErrInvalidCommand)
	}

	at := e.now().UTC()
	data, err := json.Marshal(CommandFrame{
		Type:      FrameCommand,
		Command:   command,
		Value:     value,
		Timestamp: at,
	})
	if err != nil {
		return CommandResult{}, fmt.Errorf("encoding command: %w", err)
	}
	if err := c.Send(data); err != nil {
		if errors.Is(err, ErrConnClosed) {
			return CommandResult{}, fmt.Errorf("%w: %s", ErrDeviceNotConnected, deviceID)
		}
		return CommandResult{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if !e.state.SetField(command, value) {
		e.logger.Debug("command does not map to a state field", "device_id", deviceID, "command", command)
	}
	e.logger.Info("command sent", "device_id", deviceID, "command", command, "value", value.String())

	e.broadcast(StateUpdateFrame{
		Type:      FrameStateUpdate,
		DeviceID:  deviceID,
		Command:   command,
		Value:     value,
		Timestamp: at,
	})
	for _, o := range e.observers {
		o.CommandIssued(deviceID, command, value, at)
	}

	return CommandResult{
		DeviceID:  deviceID,
		Command:   command,
		Value:     value,
		Timestamp: at,
	}, nil
}
