// Package state holds the shared "current state" snapshot of the relay hub.
//
// The snapshot is an open mapping from telemetry/actuator field name to a
// Value (number, boolean or string) plus the time of the last write. There is
// exactly one Store per process; it is owned by the relay engine and passed
// by reference to whoever needs it.
//
// Writes come from two places:
//   - Merge, for sensor reports (insert or overwrite every field given)
//   - SetField, for commands (only fields that already exist are touched;
//     an unknown command name is a no-op)
//
// Both refresh LastUpdate. Snapshot always returns a copy.
package state
