package relay

import (
	"sync"

	"github.com/google/uuid"
)

// Connections tracks live device and dashboard connections.
//
// Devices are keyed by their stable identity, dashboards by an ephemeral id
// generated per connection. Lookups return snapshots so callers can iterate
// while peers come and go.
//
// All methods are thread-safe.
type Connections struct {
	mu         sync.RWMutex
	devices    map[string]Conn
	dashboards map[string]Conn
}

// NewConnections creates an empty connection registry.
func NewConnections() *Connections {
	return &Connections{
		devices:    make(map[string]Conn),
		dashboards: make(map[string]Conn),
	}
}

// NewDashboardID returns a fresh random dashboard identifier.
func NewDashboardID() string {
	return uuid.NewString()
}

// RegisterDevice stores c under id and returns the connection it replaced,
// if any. The replaced connection is not closed.
func (c *Connections) RegisterDevice(id string, conn Conn) Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.devices[id]
	c.devices[id] = conn
	return prev
}

// UnregisterDevice removes id only if it still maps to conn, so a stale
// connection closing after a reconnect leaves the new entry alone. It
// reports whether an entry was removed.
func (c *Connections) UnregisterDevice(id string, conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.devices[id]; ok && cur == conn {
		delete(c.devices, id)
		return true
	}
	return false
}

// RegisterDashboard stores conn under id. A colliding id silently wins.
func (c *Connections) RegisterDashboard(id string, conn Conn) {
	c.mu.Lock()
	c.dashboards[id] = conn
	c.mu.Unlock()
}

// UnregisterDashboard removes id and reports whether it was present.
func (c *Connections) UnregisterDashboard(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dashboards[id]; !ok {
		return false
	}
	delete(c.dashboards, id)
	return true
}

// LookupDevice returns the live connection for id.
func (c *Connections) LookupDevice(id string) (Conn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.devices[id]
	return conn, ok
}

// AllDashboards returns a snapshot of every dashboard connection.
func (c *Connections) AllDashboards() []Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Conn, 0, len(c.dashboards))
	for _, conn := range c.dashboards {
		out = append(out, conn)
	}
	return out
}

// AllDevices returns a snapshot of every device connection.
func (c *Connections) AllDevices() []Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Conn, 0, len(c.devices))
	for _, conn := range c.devices {
		out = append(out, conn)
	}
	return out
}

// DeviceIDs returns the identities with a live connection.
func (c *Connections) DeviceIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.devices))
	for id := range c.devices {
		out = append(out, id)
	}
	return out
}

// DeviceCount returns the number of device connections.
func (c *Connections) DeviceCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}

// DashboardCount returns the number of dashboard connections.
func (c *Connections) DashboardCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dashboards)
}
