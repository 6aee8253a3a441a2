package telemetry

import (
	"time"

	"github.com/nerrad567/relayhub/internal/state"
)

// Kind identifies the relay activity an Event describes.
type Kind uint8

// Event kinds.
const (
	KindSensorData Kind = iota + 1
	KindCommand
	KindStatus
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindSensorData:
		return "sensor_data"
	case KindCommand:
		return "command"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Event is one unit of relay activity handed to sinks.
type Event struct {
	Kind     Kind
	DeviceID string
	At       time.Time

	// KindSensorData
	Fields state.Fields

	// KindCommand
	Command string
	Value   state.Value

	// KindStatus
	Online bool
}

// Sink consumes events on the dispatcher goroutine.
type Sink interface {
	Name() string
	Handle(Event) error
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
