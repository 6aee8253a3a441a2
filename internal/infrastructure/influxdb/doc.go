// Package influxdb provides InfluxDB connectivity for the relay hub.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched metric writes and health monitoring.
//
// # Purpose
//
// The relay itself keeps only the latest value of each field. This package
// stores the history:
//   - device_metrics: numeric and boolean sensor fields (bool as 0/1)
//   - device_status: connect/disconnect transitions
//   - device_commands: commands issued through the hub
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceMetric("esp32-sensor-01", "temperature", 21.5)
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned directly.
package influxdb
