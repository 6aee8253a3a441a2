// Package device provides the static Device Registry of the relay hub.
//
// The registry holds identity and descriptive metadata for every known
// device (name, type, location) plus two mutable presence fields, Online and
// LastSeen, which the relay engine toggles when the matching WebSocket
// connection opens or closes.
//
// The registry is seeded once at startup from configuration and has a fixed
// cardinality afterwards. It is deliberately independent of the live
// connection registry: a device may connect without a record (it still
// takes part in relay, it just has no metadata), and MarkOnline/MarkOffline
// on an unknown id are no-ops rather than errors.
//
// # Usage
//
//	reg, err := device.NewRegistry([]device.Record{
//	    {ID: "esp32-sensor-01", Name: "Environment Sensor", Type: device.TypeSensor},
//	})
//	reg.MarkOnline("esp32-sensor-01", time.Now())
//	rec, ok := reg.Find("esp32-sensor-01")
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use.
package device
