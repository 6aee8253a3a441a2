package telemetry

import (
	"sort"
	"time"

	"github.com/nerrad567/relayhub/internal/state"
)

// PointWriter is the subset of *influxdb.Client used by InfluxRecorder.
type PointWriter interface {
	WriteDeviceMetricAt(deviceID, field string, value float64, at time.Time)
	WriteDeviceStatus(deviceID string, online bool, at time.Time)
	WriteCommand(deviceID, command string, value float64, numeric bool, text string, at time.Time)
}

// InfluxRecorder writes relay events as time-series points.
//
// Numbers are written as-is and booleans as 0/1. String sensor fields have
// no numeric form and are skipped.
type InfluxRecorder struct {
	w PointWriter
}

// NewInfluxRecorder creates a recorder over w.
func NewInfluxRecorder(w PointWriter) *InfluxRecorder {
	return &InfluxRecorder{w: w}
}

// Name implements Sink.
func (r *InfluxRecorder) Name() string { return "influxdb" }

// Handle implements Sink. Writes are batched by the client, so Handle never fails.
func (r *InfluxRecorder) Handle(ev Event) error {
	switch ev.Kind {
	case KindSensorData:
		names := make([]string, 0, len(ev.Fields))
		for name := range ev.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if f, ok := numeric(ev.Fields[name]); ok {
				r.w.WriteDeviceMetricAt(ev.DeviceID, name, f, ev.At)
			}
		}
	case KindCommand:
		f, ok := numeric(ev.Value)
		text, _ := ev.Value.Text()
		r.w.WriteCommand(ev.DeviceID, ev.Command, f, ok, text, ev.At)
	case KindStatus:
		r.w.WriteDeviceStatus(ev.DeviceID, ev.Online, ev.At)
	}
	return nil
}

// numeric maps numbers and booleans onto float64.
func numeric(v state.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if b, ok := v.Boolean(); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
