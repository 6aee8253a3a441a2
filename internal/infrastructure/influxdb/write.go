package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the relay hub.
const (
	MeasurementDeviceMetrics = "device_metrics"
	MeasurementDeviceStatus  = "device_status"
	MeasurementCommands      = "device_commands"
)

// WriteDeviceMetric writes a single device field reading stamped with now.
//
// Example:
//
//	client.WriteDeviceMetric("esp32-sensor-01", "temperature", 21.5)
func (c *Client) WriteDeviceMetric(deviceID, field string, value float64) {
	c.WriteDeviceMetricAt(deviceID, field, value, time.Now())
}

// WriteDeviceMetricAt writes a single device field reading at the given time.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteDeviceMetricAt(deviceID, field string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(deviceMetricPoint(deviceID, field, value, at))
}

// WriteDeviceStatus records a device connect (1) or disconnect (0).
func (c *Client) WriteDeviceStatus(deviceID string, online bool, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(deviceStatusPoint(deviceID, online, at))
}

// WriteCommand records a command issued to a device. Non-numeric values are
// stored in the text field only.
func (c *Client) WriteCommand(deviceID, command string, value float64, numeric bool, text string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(deviceID, command, value, numeric, text, at))
}

func deviceMetricPoint(deviceID, field string, value float64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementDeviceMetrics,
		map[string]string{
			"device_id": deviceID,
			"field":     field,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)
}

func deviceStatusPoint(deviceID string, online bool, at time.Time) *write.Point {
	v := 0
	if online {
		v = 1
	}
	return write.NewPoint(
		MeasurementDeviceStatus,
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"online": v},
		at,
	)
}

func commandPoint(deviceID, command string, value float64, numeric bool, text string, at time.Time) *write.Point {
	fields := map[string]interface{}{}
	if numeric {
		fields["value"] = value
	}
	if text != "" {
		fields["text"] = text
	}
	if len(fields) == 0 {
		fields["value"] = value
	}
	return write.NewPoint(
		MeasurementCommands,
		map[string]string{
			"device_id": deviceID,
			"command":   command,
		},
		fields,
		at,
	)
}
