package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/relayhub/internal/device"
	"github.com/nerrad567/relayhub/internal/state"
)

// DefaultHeartbeatInterval is used by RunHeartbeat when interval is not positive.
const DefaultHeartbeatInterval = 30 * time.Second

// Role is the classification of a connecting peer.
type Role int

// Peer roles.
const (
	RoleDevice Role = iota + 1
	RoleDashboard
)

// String returns the role name used in logs.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "device"
	case RoleDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Observer is notified after the engine has applied a state change.
//
// Methods are called on the relay path and must return quickly.
type Observer interface {
	SensorData(deviceID string, fields state.Fields, at time.Time)
	CommandIssued(deviceID, command string, value state.Value, at time.Time)
	DeviceStatus(deviceID string, online bool, at time.Time)
}

// Deps holds the collaborators of an Engine.
type Deps struct {
	State     *state.Store
	Devices   *device.Registry
	Logger    Logger
	Observers []Observer
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Engine routes frames between device and dashboard peers and owns the
// connection bookkeeping around the shared state store.
//
// All methods are safe for concurrent use.
//
// presenceMu makes a device's connection entry and its registry presence
// change together. fanoutMu orders dashboard registration against broadcast
// so a new dashboard sees initialData before any update. When both are held,
// presenceMu is taken first.
type Engine struct {
	presenceMu sync.Mutex
	fanoutMu   sync.Mutex

	conns     *Connections
	state     *state.Store
	devices   *device.Registry
	logger    Logger
	observers []Observer
	now       func() time.Time
}

// NewEngine creates an Engine. State and Devices are required.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.State == nil {
		return nil, errors.New("relay: state store is required")
	}
	if deps.Devices == nil {
		return nil, errors.New("relay: device registry is required")
	}
	e := &Engine{
		conns:     NewConnections(),
		state:     deps.State,
		devices:   deps.Devices,
		logger:    deps.Logger,
		observers: deps.Observers,
		now:       deps.Now,
	}
	if e.logger == nil {
		e.logger = noopLogger{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// AddObserver registers o for subsequent state changes. It must be called
// before the engine starts serving peers.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// Connections exposes the live connection registry.
func (e *Engine) Connections() *Connections {
	return e.conns
}

// Classify maps the connection query parameters to a role.
func (e *Engine) Classify(role, deviceID string) (Role, error) {
	switch role {
	case "device":
		if deviceID == "" {
			return 0, fmt.Errorf("%w: device id required", ErrInvalidRole)
		}
		return RoleDevice, nil
	case "web", "dashboard":
		return RoleDashboard, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidRole, role)
	}
}

// ConnectDevice registers a device connection and acknowledges it.
// A previous connection for the same id is superseded but not closed.
func (e *Engine) ConnectDevice(id string, c Conn) {
	at := e.now().UTC()

	e.presenceMu.Lock()
	defer e.presenceMu.Unlock()

	if prev := e.conns.RegisterDevice(id, c); prev != nil {
		e.logger.Info("device connection replaced", "device_id", id)
	}
	if !e.devices.MarkOnline(id, at) {
		e.logger.Debug("connected device is not in registry", "device_id", id)
	}
	e.logger.Info("device connected", "device_id", id, "devices", e.conns.DeviceCount())

	e.sendTo(c, ConfigFrame{
		Type:     FrameConfig,
		Message:  connectedMessage,
		DeviceID: id,
	})

	for _, o := range e.observers {
		o.DeviceStatus(id, true, at)
	}
}

// HandleDeviceFrame processes one inbound frame from a device.
// The returned error is informational; the connection stays open.
func (e *Engine) HandleDeviceFrame(id string, raw []byte) error {
	f, err := parseInbound(raw)
	if err != nil {
		e.logger.Warn("malformed device frame", "device_id", id, "error", err)
		return err
	}

	switch f.Type {
	case FrameSensorData:
		fields, err := f.sensorFields()
		if err != nil {
			e.logger.Warn("malformed sensor data", "device_id", id, "error", err)
			return err
		}
		merged, at := e.state.Merge(fields)
		e.broadcast(SensorUpdateFrame{
			Type:      FrameSensorUpdate,
			DeviceID:  id,
			Data:      merged,
			Timestamp: at,
		})
		for _, o := range e.observers {
			o.SensorData(id, merged, at)
		}
	default:
		e.logger.Debug("ignoring device frame", "device_id", id, "type", f.Type)
	}
	return nil
}

// DisconnectDevice removes c for id. Only the live connection marks the
// device offline and notifies dashboards.
func (e *Engine) DisconnectDevice(id string, c Conn) {
	at := e.now().UTC()

	e.presenceMu.Lock()
	defer e.presenceMu.Unlock()

	if !e.conns.UnregisterDevice(id, c) {
		e.logger.Debug("superseded device connection closed", "device_id", id)
		return
	}
	e.devices.MarkOffline(id, at)
	e.logger.Info("device disconnected", "device_id", id, "devices", e.conns.DeviceCount())

	e.broadcast(DeviceDisconnectedFrame{
		Type:      FrameDeviceDisconnected,
		DeviceID:  id,
		Timestamp: at,
	})
	for _, o := range e.observers {
		o.DeviceStatus(id, false, at)
	}
}

// ConnectDashboard registers a dashboard under a fresh id, sends it the
// initial snapshot and returns the id.
func (e *Engine) ConnectDashboard(c Conn) string {
	id := NewDashboardID()
	at := e.now().UTC()

	e.fanoutMu.Lock()
	//nolint:errcheck // A failed initialData send is logged; the read pump reaps the peer
	e.sendTo(c, InitialDataFrame{
		Type:      FrameInitialData,
		Devices:   e.devices.List(),
		Sensors:   e.state.Snapshot(),
		Timestamp: at,
	})
	e.conns.RegisterDashboard(id, c)
	e.fanoutMu.Unlock()

	e.logger.Info("dashboard connected", "dashboard_id", id, "dashboards", e.conns.DashboardCount())
	return id
}

// HandleDashboardFrame accepts and discards a dashboard frame.
func (e *Engine) HandleDashboardFrame(id string, raw []byte) {
	e.logger.Debug("ignoring dashboard frame", "dashboard_id", id, "bytes", len(raw))
}

// DisconnectDashboard removes the dashboard id.
func (e *Engine) DisconnectDashboard(id string) {
	if e.conns.UnregisterDashboard(id) {
		e.logger.Info("dashboard disconnected", "dashboard_id", id, "dashboards", e.conns.DashboardCount())
	}
}

// RunHeartbeat logs connection counts every interval until ctx is done.
func (e *Engine) RunHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.logger.Info("heartbeat",
				"devices", e.conns.DeviceCount(),
				"dashboards", e.conns.DashboardCount(),
			)
		}
	}
}

// broadcast sends frame to every open dashboard and returns the number of
// peers it was queued for.
func (e *Engine) broadcast(frame any) int {
	data, err := json.Marshal(frame)
	if err != nil {
		e.logger.Error("encoding broadcast frame", "error", err)
		return 0
	}

	e.fanoutMu.Lock()
	defer e.fanoutMu.Unlock()

	sent := 0
	for _, c := range e.conns.AllDashboards() {
		if !c.IsOpen() {
			continue
		}
		if err := c.Send(data); err != nil {
			e.logger.Debug("dashboard send failed", "error", err)
			continue
		}
		sent++
	}
	return sent
}

func (e *Engine) sendTo(c Conn, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		e.logger.Error("encoding frame", "error", err)
		return err
	}
	if err := c.Send(data); err != nil {
		e.logger.Debug("peer send failed", "error", err)
		return err
	}
	return nil
}
