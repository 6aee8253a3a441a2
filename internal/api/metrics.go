package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	Devices       DeviceMetrics     `json:"devices"`
	Connections   ConnectionMetrics `json:"connections"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket transport statistics.
type WSMetrics struct {
	ConnectedPeers int `json:"connected_peers"`
}

// DeviceMetrics contains device registry statistics.
type DeviceMetrics struct {
	Total  int `json:"total"`
	Online int `json:"online"`
}

// ConnectionMetrics contains relay connection counts by role.
type ConnectionMetrics struct {
	Devices    int `json:"devices"`
	Dashboards int `json:"dashboards"`
}

// handleMetrics returns runtime and relay statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	records := s.engine.ListDevices()
	online := 0
	for _, rec := range records {
		if rec.Online {
			online++
		}
	}
	h := s.engine.Health()

	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{ConnectedPeers: s.hub.PeerCount()},
		Devices:   DeviceMetrics{Total: len(records), Online: online},
		Connections: ConnectionMetrics{
			Devices:    h.DeviceConnections,
			Dashboards: h.DashboardConnections,
		},
	})
}
