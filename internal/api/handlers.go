package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/relayhub/internal/state"
)

// ControlRequest is the body of POST /api/devices/{deviceId}/control.
type ControlRequest struct {
	Command string      `json:"command"`
	Value   state.Value `json:"value"`
}

// ControlResponse is returned when a command was queued for the device.
type ControlResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Command string      `json:"command"`
	Value   state.Value `json:"value"`
}

// handleHealth returns the connection counts.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Health())
}

// handlePing is a bare liveness probe.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "pong",
		"timestamp": time.Now().UTC(),
	})
}

// handleListDevices returns every known device record.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ListDevices())
}

// handleSensors returns the shared state snapshot.
func (s *Server) handleSensors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CurrentState())
}

// handleControl issues a command to a connected device.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	res, err := s.engine.IssueCommand(deviceID, req.Command, req.Value)
	if err != nil {
		e := commandError(err)
		switch e.Status {
		case http.StatusServiceUnavailable:
			s.logger.Warn("command not delivered", "device_id", deviceID, "error", err)
		case http.StatusInternalServerError:
			s.logger.Error("command failed", "device_id", deviceID, "error", err)
		}
		writeJSON(w, e.Status, e)
		return
	}

	writeJSON(w, http.StatusOK, ControlResponse{
		Success: true,
		Message: "Command sent",
		Command: res.Command,
		Value:   res.Value,
	})
}
