package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/relayhub/internal/device"
	"github.com/nerrad567/relayhub/internal/state"
)

// fakeConn is an in-memory Conn recording every frame it is sent.
type fakeConn struct {
	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	sendErr error
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// decoded returns every recorded frame decoded as a generic map.
func (c *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("frame is not JSON: %v (%s)", err, f)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// lastOfType returns the most recent frame with the given type tag.
func (c *fakeConn) lastOfType(t *testing.T, typ string) map[string]any {
	t.Helper()
	frames := c.decoded(t)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i]["type"] == typ {
			return frames[i]
		}
	}
	t.Fatalf("no %q frame among %d frames", typ, len(frames))
	return nil
}

func (c *fakeConn) countOfType(t *testing.T, typ string) int {
	t.Helper()
	n := 0
	for _, f := range c.decoded(t) {
		if f["type"] == typ {
			n++
		}
	}
	return n
}

type recordingObserver struct {
	mu         sync.Mutex
	sensors    []string
	lastFields state.Fields
	commands []string
	statuses []bool
}

func (o *recordingObserver) SensorData(id string, fields state.Fields, _ time.Time) {
	o.mu.Lock()
	o.sensors = append(o.sensors, id)
	o.lastFields = fields
	o.mu.Unlock()
}

func (o *recordingObserver) CommandIssued(id, command string, _ state.Value, _ time.Time) {
	o.mu.Lock()
	o.commands = append(o.commands, id+":"+command)
	o.mu.Unlock()
}

func (o *recordingObserver) DeviceStatus(_ string, online bool, _ time.Time) {
	o.mu.Lock()
	o.statuses = append(o.statuses, online)
	o.mu.Unlock()
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, observers ...Observer) *Engine {
	t.Helper()
	store := state.New(state.Fields{
		"temperature": state.Number(0),
		"led":         state.Bool(false),
		"fan":         state.Bool(false),
	}, func() time.Time { return fixedNow })

	reg, err := device.NewRegistry([]device.Record{
		{ID: "esp32-sensor-01", Name: "Environment Sensor", Type: device.TypeSensor},
		{ID: "esp32-actuator-01", Name: "Relay Board", Type: device.TypeActuator},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	e, err := NewEngine(Deps{
		State:     store,
		Devices:   reg,
		Observers: observers,
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine_RequiresDeps(t *testing.T) {
	if _, err := NewEngine(Deps{}); err == nil {
		t.Error("NewEngine(empty) should fail")
	}
	if _, err := NewEngine(Deps{State: state.New(nil, nil)}); err == nil {
		t.Error("NewEngine(no registry) should fail")
	}
}

func TestClassify(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name     string
		role     string
		deviceID string
		want     Role
		wantErr  bool
	}{
		{"device", "device", "esp32-sensor-01", RoleDevice, false},
		{"device without id", "device", "", 0, true},
		{"web", "web", "", RoleDashboard, false},
		{"dashboard alias", "dashboard", "", RoleDashboard, false},
		{"empty", "", "", 0, true},
		{"unknown", "admin", "x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Classify(tt.role, tt.deviceID)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("Classify() error = %v, want ErrInvalidRole", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectDevice_AcknowledgesAndMarksOnline(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, obs)
	dev := newFakeConn()

	e.ConnectDevice("esp32-sensor-01", dev)

	cfg := dev.lastOfType(t, FrameConfig)
	if cfg["deviceId"] != "esp32-sensor-01" {
		t.Errorf("config deviceId = %v", cfg["deviceId"])
	}
	if cfg["message"] == "" {
		t.Error("config message is empty")
	}

	rec, _ := e.devices.Find("esp32-sensor-01")
	if !rec.Online || rec.LastSeen == nil {
		t.Errorf("record after connect = %+v, want online with lastSeen", rec)
	}
	if e.Health().DeviceConnections != 1 {
		t.Errorf("DeviceConnections = %d, want 1", e.Health().DeviceConnections)
	}
	if len(obs.statuses) != 1 || !obs.statuses[0] {
		t.Errorf("observer statuses = %v, want [true]", obs.statuses)
	}
}

func TestConnectDevice_UnknownIDStillRelays(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)

	dev := newFakeConn()
	e.ConnectDevice("stranger", dev)

	if err := e.HandleDeviceFrame("stranger", []byte(`{"type":"sensorData","data":{"temperature":19}}`)); err != nil {
		t.Fatalf("HandleDeviceFrame() error = %v", err)
	}
	if got := dash.countOfType(t, FrameSensorUpdate); got != 1 {
		t.Errorf("sensorUpdate frames = %d, want 1", got)
	}
	if _, ok := e.devices.Find("stranger"); ok {
		t.Error("unknown device should not be added to the registry")
	}
}

func TestConnectDashboard_SendsInitialData(t *testing.T) {
	e := newTestEngine(t)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())

	dash := newFakeConn()
	id := e.ConnectDashboard(dash)
	if id == "" {
		t.Fatal("ConnectDashboard() returned empty id")
	}

	init := dash.lastOfType(t, FrameInitialData)
	devices, ok := init["devices"].([]any)
	if !ok || len(devices) != 2 {
		t.Fatalf("initialData devices = %v", init["devices"])
	}
	first := devices[0].(map[string]any)
	if first["id"] != "esp32-sensor-01" || first["online"] != true {
		t.Errorf("first device = %v", first)
	}
	sensors, ok := init["sensors"].(map[string]any)
	if !ok {
		t.Fatalf("initialData sensors = %v", init["sensors"])
	}
	if _, ok := sensors["lastUpdate"]; !ok {
		t.Error("sensors missing lastUpdate")
	}
	if sensors["led"] != false {
		t.Errorf("sensors.led = %v, want false", sensors["led"])
	}
}

func TestDashboardIDsAreUnique(t *testing.T) {
	e := newTestEngine(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := e.ConnectDashboard(newFakeConn())
		if seen[id] {
			t.Fatalf("duplicate dashboard id %q", id)
		}
		seen[id] = true
	}
	if got := e.Health().DashboardConnections; got != 50 {
		t.Errorf("DashboardConnections = %d, want 50", got)
	}
}

func TestHandleDeviceFrame_SensorDataMergesAndBroadcasts(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, obs)
	d1, d2 := newFakeConn(), newFakeConn()
	e.ConnectDashboard(d1)
	e.ConnectDashboard(d2)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())

	err := e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"sensorData","data":{"temperature":21.5,"pressure":1013}}`))
	if err != nil {
		t.Fatalf("HandleDeviceFrame() error = %v", err)
	}

	for i, d := range []*fakeConn{d1, d2} {
		upd := d.lastOfType(t, FrameSensorUpdate)
		if upd["deviceId"] != "esp32-sensor-01" {
			t.Errorf("dashboard %d deviceId = %v", i, upd["deviceId"])
		}
		data := upd["data"].(map[string]any)
		if len(data) != 2 || data["temperature"] != 21.5 || data["pressure"] != 1013.0 {
			t.Errorf("dashboard %d data = %v, want only merged fields", i, data)
		}
		if _, ok := upd["timestamp"]; !ok {
			t.Errorf("dashboard %d sensorUpdate has no timestamp", i)
		}
	}

	snap := e.CurrentState()
	if v := snap.Fields["pressure"]; !v.Equal(state.Number(1013)) {
		t.Errorf("pressure = %v, want 1013", v)
	}
	if v := snap.Fields["led"]; !v.Equal(state.Bool(false)) {
		t.Errorf("led = %v, want untouched false", v)
	}
	if len(obs.sensors) != 1 {
		t.Errorf("observer sensor calls = %d, want 1", len(obs.sensors))
	}
}

func TestHandleDeviceFrame_BroadcastsOnlyMergedFields(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, obs)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())

	err := e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"sensorData","data":{"temperature":22,"lastUpdate":"forged"}}`))
	if err != nil {
		t.Fatalf("HandleDeviceFrame() error = %v", err)
	}

	data := dash.lastOfType(t, FrameSensorUpdate)["data"].(map[string]any)
	if _, ok := data["lastUpdate"]; ok || len(data) != 1 {
		t.Errorf("sensorUpdate data = %v, want only temperature", data)
	}
	if _, ok := obs.lastFields["lastUpdate"]; ok || len(obs.lastFields) != 1 {
		t.Errorf("observer fields = %v, want only temperature", obs.lastFields)
	}
}

func TestHandleDeviceFrame_Malformed(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())
	before := e.CurrentState()

	frames := []string{
		`not json`,
		`{"data":{"temperature":1}}`,
		`{"type":"sensorData"}`,
		`{"type":"sensorData","data":[1,2]}`,
		`{"type":"sensorData","data":{"temperature":null}}`,
	}
	for _, f := range frames {
		err := e.HandleDeviceFrame("esp32-sensor-01", []byte(f))
		if !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("HandleDeviceFrame(%s) error = %v, want ErrMalformedFrame", f, err)
		}
	}

	if got := dash.countOfType(t, FrameSensorUpdate); got != 0 {
		t.Errorf("sensorUpdate frames = %d, want 0", got)
	}
	if !e.CurrentState().LastUpdate.Equal(before.LastUpdate) || len(e.CurrentState().Fields) != len(before.Fields) {
		t.Error("malformed frames must not touch state")
	}
	if e.Health().DeviceConnections != 1 {
		t.Error("device connection should stay registered")
	}
}

func TestHandleDeviceFrame_UnknownTypeIgnored(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	n := dash.count()

	if err := e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"hello","data":{}}`)); err != nil {
		t.Fatalf("HandleDeviceFrame() error = %v", err)
	}
	if dash.count() != n {
		t.Error("unknown frame type should not be broadcast")
	}
}

func TestDisconnectDevice_BroadcastsAndMarksOffline(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, obs)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	dev := newFakeConn()
	e.ConnectDevice("esp32-sensor-01", dev)

	dev.close()
	e.DisconnectDevice("esp32-sensor-01", dev)

	msg := dash.lastOfType(t, FrameDeviceDisconnected)
	if msg["deviceId"] != "esp32-sensor-01" {
		t.Errorf("deviceDisconnected deviceId = %v", msg["deviceId"])
	}
	rec, _ := e.devices.Find("esp32-sensor-01")
	if rec.Online {
		t.Error("device should be offline")
	}
	if rec.LastSeen == nil {
		t.Error("lastSeen should be set")
	}
	if e.Health().DeviceConnections != 0 {
		t.Error("device should be unregistered")
	}
	if len(obs.statuses) != 2 || obs.statuses[1] {
		t.Errorf("observer statuses = %v, want [true false]", obs.statuses)
	}
}

func TestReconnect_StaleCloseKeepsNewConnection(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)

	old, fresh := newFakeConn(), newFakeConn()
	e.ConnectDevice("esp32-actuator-01", old)
	e.ConnectDevice("esp32-actuator-01", fresh)
	if old.closed {
		t.Error("superseded connection should not be closed by the engine")
	}

	old.close()
	e.DisconnectDevice("esp32-actuator-01", old)

	if got := dash.countOfType(t, FrameDeviceDisconnected); got != 0 {
		t.Errorf("deviceDisconnected frames = %d, want 0", got)
	}
	rec, _ := e.devices.Find("esp32-actuator-01")
	if !rec.Online {
		t.Error("device should stay online")
	}

	if _, err := e.IssueCommand("esp32-actuator-01", "led", state.Bool(true)); err != nil {
		t.Fatalf("IssueCommand() error = %v", err)
	}
	if fresh.countOfType(t, FrameCommand) != 1 {
		t.Error("command should reach the newest connection")
	}
	if old.countOfType(t, FrameCommand) != 0 {
		t.Error("command must not reach the superseded connection")
	}
}

func TestReconnect_DuringDisconnectKeepsDeviceOnline(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)

	old, fresh := newFakeConn(), newFakeConn()
	e.ConnectDevice("esp32-actuator-01", old)

	// The reconnect lands while the old connection is being torn down.
	armed := true
	e.now = func() time.Time {
		if armed {
			armed = false
			e.ConnectDevice("esp32-actuator-01", fresh)
		}
		return fixedNow
	}
	old.close()
	e.DisconnectDevice("esp32-actuator-01", old)

	live, ok := e.conns.LookupDevice("esp32-actuator-01")
	if !ok || live != Conn(fresh) {
		t.Fatal("new connection should be registered")
	}
	if rec, _ := e.devices.Find("esp32-actuator-01"); !rec.Online {
		t.Error("registry reports offline while a live connection exists")
	}
	if got := dash.countOfType(t, FrameDeviceDisconnected); got != 0 {
		t.Errorf("deviceDisconnected frames = %d, want 0", got)
	}
}

func TestConcurrentReconnect_PresenceMatchesConnection(t *testing.T) {
	e := newTestEngine(t)
	const id = "esp32-sensor-01"

	for i := 0; i < 200; i++ {
		old, fresh := newFakeConn(), newFakeConn()
		e.ConnectDevice(id, old)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.DisconnectDevice(id, old)
		}()
		go func() {
			defer wg.Done()
			e.ConnectDevice(id, fresh)
		}()
		wg.Wait()

		live, ok := e.conns.LookupDevice(id)
		rec, _ := e.devices.Find(id)
		if !ok || live != Conn(fresh) || !rec.Online {
			t.Fatalf("iteration %d: registered=%v fresh=%v online=%v", i, ok, live == Conn(fresh), rec.Online)
		}
		e.DisconnectDevice(id, fresh)
		if rec, _ := e.devices.Find(id); rec.Online {
			t.Fatalf("iteration %d: device should be offline after its live connection closed", i)
		}
	}
}

func TestIssueCommand_Success(t *testing.T) {
	obs := &recordingObserver{}
	e := newTestEngine(t, obs)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	dev := newFakeConn()
	e.ConnectDevice("esp32-actuator-01", dev)

	res, err := e.IssueCommand("esp32-actuator-01", "led", state.Bool(true))
	if err != nil {
		t.Fatalf("IssueCommand() error = %v", err)
	}
	if res.DeviceID != "esp32-actuator-01" || res.Command != "led" || !res.Value.Equal(state.Bool(true)) {
		t.Errorf("result = %+v", res)
	}

	cmd := dev.lastOfType(t, FrameCommand)
	if cmd["command"] != "led" || cmd["value"] != true {
		t.Errorf("command frame = %v", cmd)
	}
	if _, ok := cmd["timestamp"]; !ok {
		t.Error("command frame has no timestamp")
	}

	upd := dash.lastOfType(t, FrameStateUpdate)
	if upd["deviceId"] != "esp32-actuator-01" || upd["command"] != "led" || upd["value"] != true {
		t.Errorf("stateUpdate frame = %v", upd)
	}

	if v := e.CurrentState().Fields["led"]; !v.Equal(state.Bool(true)) {
		t.Errorf("led = %v, want true", v)
	}
	if len(obs.commands) != 1 || obs.commands[0] != "esp32-actuator-01:led" {
		t.Errorf("observer commands = %v", obs.commands)
	}
}

func TestIssueCommand_UnknownFieldStillRelayed(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	dev := newFakeConn()
	e.ConnectDevice("esp32-actuator-01", dev)
	before := e.CurrentState()

	if _, err := e.IssueCommand("esp32-actuator-01", "reboot", state.Bool(true)); err != nil {
		t.Fatalf("IssueCommand() error = %v", err)
	}
	if dev.countOfType(t, FrameCommand) != 1 {
		t.Error("command should be sent to the device")
	}
	if dash.countOfType(t, FrameStateUpdate) != 1 {
		t.Error("stateUpdate should be broadcast")
	}
	after := e.CurrentState()
	if _, ok := after.Fields["reboot"]; ok {
		t.Error("unknown command name must not create a state field")
	}
	if !after.LastUpdate.Equal(before.LastUpdate) || len(after.Fields) != len(before.Fields) {
		t.Error("state should be unchanged")
	}
}

func TestIssueCommand_DeviceNotConnected(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	n := dash.count()

	_, err := e.IssueCommand("esp32-actuator-01", "led", state.Bool(true))
	if !errors.Is(err, ErrDeviceNotConnected) {
		t.Fatalf("IssueCommand() error = %v, want ErrDeviceNotConnected", err)
	}

	dev := newFakeConn()
	e.ConnectDevice("esp32-actuator-01", dev)
	dev.close()
	_, err = e.IssueCommand("esp32-actuator-01", "led", state.Bool(true))
	if !errors.Is(err, ErrDeviceNotConnected) {
		t.Fatalf("IssueCommand(closed) error = %v, want ErrDeviceNotConnected", err)
	}

	if v := e.CurrentState().Fields["led"]; !v.Equal(state.Bool(false)) {
		t.Errorf("led = %v, want unchanged false", v)
	}
	if dash.count() != n {
		t.Error("no frames should be broadcast for a failed command")
	}
}

func TestIssueCommand_NotConnectedWinsOverInvalid(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.IssueCommand("ghost", "", state.Number(1)); !errors.Is(err, ErrDeviceNotConnected) {
		t.Errorf("empty command error = %v, want ErrDeviceNotConnected", err)
	}
	if _, err := e.IssueCommand("esp32-actuator-01", "led", state.Value{}); !errors.Is(err, ErrDeviceNotConnected) {
		t.Errorf("invalid value error = %v, want ErrDeviceNotConnected", err)
	}
}

func TestIssueCommand_SendFailureLeavesStateAlone(t *testing.T) {
	e := newTestEngine(t)
	dev := newFakeConn()
	e.ConnectDevice("esp32-actuator-01", dev)
	dev.sendErr = ErrSendBufferFull

	_, err := e.IssueCommand("esp32-actuator-01", "fan", state.Bool(true))
	if !errors.Is(err, ErrSendFailed) || !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("IssueCommand() error = %v, want ErrSendFailed wrapping ErrSendBufferFull", err)
	}
	if v := e.CurrentState().Fields["fan"]; !v.Equal(state.Bool(false)) {
		t.Errorf("fan = %v, want unchanged false", v)
	}
}

func TestIssueCommand_Invalid(t *testing.T) {
	e := newTestEngine(t)
	e.ConnectDevice("esp32-actuator-01", newFakeConn())

	if _, err := e.IssueCommand("esp32-actuator-01", "", state.Bool(true)); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("empty command error = %v, want ErrInvalidCommand", err)
	}
	if _, err := e.IssueCommand("esp32-actuator-01", "led", state.Value{}); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("invalid value error = %v, want ErrInvalidCommand", err)
	}
}

func TestBroadcast_SkipsClosedAndFailingPeers(t *testing.T) {
	e := newTestEngine(t)
	ok, closed, full := newFakeConn(), newFakeConn(), newFakeConn()
	e.ConnectDashboard(ok)
	e.ConnectDashboard(closed)
	e.ConnectDashboard(full)
	closed.close()
	full.sendErr = ErrSendBufferFull

	if n := e.broadcast(DeviceDisconnectedFrame{Type: FrameDeviceDisconnected, DeviceID: "x"}); n != 1 {
		t.Errorf("broadcast() = %d, want 1", n)
	}
	if ok.countOfType(t, FrameDeviceDisconnected) != 1 {
		t.Error("open peer should receive the frame")
	}
}

func TestHealth(t *testing.T) {
	e := newTestEngine(t)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())
	e.ConnectDashboard(newFakeConn())
	e.ConnectDashboard(newFakeConn())

	h := e.Health()
	if h.Status != "ok" || h.DeviceConnections != 1 || h.DashboardConnections != 2 {
		t.Errorf("Health() = %+v", h)
	}
	if !h.Timestamp.Equal(fixedNow) {
		t.Errorf("Timestamp = %v, want %v", h.Timestamp, fixedNow)
	}
}

func TestDisconnectDashboard(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	id := e.ConnectDashboard(dash)
	e.DisconnectDashboard(id)
	e.DisconnectDashboard(id)

	if e.Health().DashboardConnections != 0 {
		t.Error("dashboard should be removed")
	}
	n := dash.count()
	e.ConnectDevice("esp32-sensor-01", newFakeConn())
	_ = e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"sensorData","data":{"temperature":1}}`))
	if dash.count() != n {
		t.Error("removed dashboard should receive nothing")
	}
}

func TestRunHeartbeat_StopsOnCancel(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.RunHeartbeat(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunHeartbeat did not return after cancel")
	}
}

func TestConnectDashboard_InitialDataComesFirst(t *testing.T) {
	e := newTestEngine(t)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				_ = e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"sensorData","data":{"temperature":20}}`))
			}
		}
	}()

	dashes := make([]*fakeConn, 50)
	for i := range dashes {
		dashes[i] = newFakeConn()
		e.ConnectDashboard(dashes[i])
	}
	close(stop)
	<-done

	for i, d := range dashes {
		frames := d.decoded(t)
		if len(frames) == 0 {
			t.Fatalf("dashboard %d received no frames", i)
		}
		if frames[0]["type"] != FrameInitialData {
			t.Fatalf("dashboard %d first frame = %v, want initialData", i, frames[0]["type"])
		}
	}
}

func TestConcurrentRelay(t *testing.T) {
	e := newTestEngine(t)
	dash := newFakeConn()
	e.ConnectDashboard(dash)
	e.ConnectDevice("esp32-sensor-01", newFakeConn())
	e.ConnectDevice("esp32-actuator-01", newFakeConn())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = e.HandleDeviceFrame("esp32-sensor-01", []byte(`{"type":"sensorData","data":{"temperature":20}}`))
		}()
		go func() {
			defer wg.Done()
			_, _ = e.IssueCommand("esp32-actuator-01", "fan", state.Bool(true))
		}()
		go func() {
			defer wg.Done()
			id := e.ConnectDashboard(newFakeConn())
			e.DisconnectDashboard(id)
		}()
	}
	wg.Wait()

	if got := dash.countOfType(t, FrameSensorUpdate); got != 20 {
		t.Errorf("sensorUpdate frames = %d, want 20", got)
	}
	if got := dash.countOfType(t, FrameStateUpdate); got != 20 {
		t.Errorf("stateUpdate frames = %d, want 20", got)
	}
}
