// Package api implements the HTTP REST API and WebSocket transport for the relay hub.
//
// This package provides:
//   - REST endpoints for health, device listing, state snapshot and commands
//   - WebSocket upgrade for device and dashboard peers
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server is a thin adapter in front of relay.Engine. Each upgraded
// WebSocket connection becomes a peer with its own buffered send queue and a
// read/write pump pair. Peers are classified by the "type" and "deviceId"
// query parameters; anything unclassifiable is closed with code 1008.
//
// # Graceful Degradation
//
// A slow peer never blocks the relay: when its send queue is full, frames
// addressed to it are dropped.
package api
