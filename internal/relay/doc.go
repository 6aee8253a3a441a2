// Package relay implements the connection registry and message relay engine.
//
// Devices connect with a stable identity, report sensor readings and accept
// commands. Dashboards connect anonymously and receive a snapshot followed by
// a stream of sensorUpdate, stateUpdate and deviceDisconnected frames.
//
// The engine is transport-agnostic: peers are represented by the Conn
// interface and the transport calls Connect/Handle/Disconnect as the
// connection progresses. Frame delivery is best effort with no retries.
package relay
