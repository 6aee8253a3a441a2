package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nerrad567/relayhub/internal/state"
)

// DefaultQueueSize is the event queue depth used when none is given.
const DefaultQueueSize = 256

// Dispatcher queues relay events and fans them out to sinks.
//
// The relay.Observer methods never block: when the queue is full the event
// is dropped and counted.
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	logger  Logger
	dropped atomic.Uint64
}

// NewDispatcher creates a Dispatcher with the given queue depth.
func NewDispatcher(size int, logger Logger, sinks ...Sink) *Dispatcher {
	if size < 1 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		queue:  make(chan Event, size),
		sinks:  sinks,
		logger: logger,
	}
}

// SensorData implements relay.Observer.
func (d *Dispatcher) SensorData(deviceID string, fields state.Fields, at time.Time) {
	d.enqueue(Event{Kind: KindSensorData, DeviceID: deviceID, Fields: fields.Clone(), At: at})
}

// CommandIssued implements relay.Observer.
func (d *Dispatcher) CommandIssued(deviceID, command string, value state.Value, at time.Time) {
	d.enqueue(Event{Kind: KindCommand, DeviceID: deviceID, Command: command, Value: value, At: at})
}

// DeviceStatus implements relay.Observer.
func (d *Dispatcher) DeviceStatus(deviceID string, online bool, at time.Time) {
	d.enqueue(Event{Kind: KindStatus, DeviceID: deviceID, Online: online, At: at})
}

// Dropped returns how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) enqueue(ev Event) {
	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		d.logger.Debug("telemetry queue full, event dropped", "kind", ev.Kind.String(), "device_id", ev.DeviceID)
	}
}

// Run delivers queued events until ctx is done, then drains what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case ev := <-d.queue:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, s := range d.sinks {
		if err := s.Handle(ev); err != nil {
			d.logger.Warn("telemetry sink failed",
				"sink", s.Name(),
				"kind", ev.Kind.String(),
				"device_id", ev.DeviceID,
				"error", err,
			)
		}
	}
}
