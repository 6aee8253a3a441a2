package mqtt

import "errors"

// Sentinel errors returned by Client. Callers match them with errors.Is.
var (
	// ErrNotConnected means the broker link is down. Telemetry callers treat
	// it as a dropped event, not a failure of the relay.
	ErrNotConnected = errors.New("mqtt: client not connected")

	ErrConnectionFailed  = errors.New("mqtt: connection failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned for QoS levels above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic or topic filter.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
