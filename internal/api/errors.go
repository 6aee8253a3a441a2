package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/relayhub/internal/relay"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeDeviceNotConnected = "device_not_connected"
	ErrCodeSendFailed         = "send_failed"
	ErrCodeInternal           = "internal_error"
)

// commandErrors maps relay gateway errors onto responses, checked in order.
var commandErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{relay.ErrDeviceNotConnected, http.StatusNotFound, ErrCodeDeviceNotConnected, "Device not connected"},
	{relay.ErrInvalidCommand, http.StatusBadRequest, ErrCodeBadRequest, "invalid command"},
	{relay.ErrSendFailed, http.StatusServiceUnavailable, ErrCodeSendFailed, "Device is not accepting commands"},
}

// commandError resolves err into a response. Unmapped errors are a 500.
func commandError(err error) Error {
	for _, m := range commandErrors {
		if errors.Is(err, m.target) {
			return Error{Status: m.status, Code: m.code, Message: m.message}
		}
	}
	return Error{Status: http.StatusInternalServerError, Code: ErrCodeInternal, Message: "failed to send command"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
