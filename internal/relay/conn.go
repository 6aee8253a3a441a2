package relay

// Conn is a live peer connection as seen by the relay engine.
//
// The engine never owns a Conn: the transport creates it, closes it, and
// tells the engine when it is gone. Send must not block; implementations
// queue the frame and return ErrSendBufferFull or ErrConnClosed instead
// of waiting.
type Conn interface {
	// Send queues one serialized frame for delivery.
	Send(frame []byte) error
	// IsOpen reports whether the transport still considers the peer connected.
	IsOpen() bool
}

// Logger defines the logging interface used by the relay engine.
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
