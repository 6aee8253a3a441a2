// Package telemetry mirrors relay activity onto side channels.
//
// A Dispatcher implements relay.Observer and forwards events through a
// bounded queue to one or more sinks, so a slow broker or database never
// stalls frame routing. Two sinks are provided: MQTTMirror publishes events
// to the broker and InfluxRecorder writes them as time-series points.
//
// CommandIngress is the reverse path: it subscribes to MQTT control topics
// and routes each message through the relay command gateway.
package telemetry
