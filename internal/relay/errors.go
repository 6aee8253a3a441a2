package relay

import "errors"

// Relay errors. None of them is fatal to the process.
var (
	// ErrDeviceNotConnected is returned by IssueCommand when the target device
	// has no live, open connection.
	ErrDeviceNotConnected = errors.New("relay: device not connected")

	// ErrMalformedFrame is returned when an inbound frame is not a valid
	// tagged message. The connection stays open.
	ErrMalformedFrame = errors.New("relay: malformed frame")

	// ErrInvalidRole is returned when a connecting peer cannot be classified.
	ErrInvalidRole = errors.New("relay: invalid connection role")

	// ErrInvalidCommand is returned when a command has no name or no value.
	ErrInvalidCommand = errors.New("relay: invalid command")

	// ErrSendFailed is returned when a command frame could not be queued
	// on an otherwise open device connection.
	ErrSendFailed = errors.New("relay: send failed")

	// ErrConnClosed is returned by Conn.Send after the peer has gone away.
	ErrConnClosed = errors.New("relay: connection closed")

	// ErrSendBufferFull is returned by Conn.Send when the peer's outbound
	// queue is full. The frame is dropped for that peer only.
	ErrSendBufferFull = errors.New("relay: send buffer full")
)
