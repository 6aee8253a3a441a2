package state

import (
	"encoding/json"
	"sync"
	"time"
)

// LastUpdateKey is the reserved snapshot key carrying the last write time.
// Fields with this name are never stored.
const LastUpdateKey = "lastUpdate"

// Snapshot is the full value of the Store at one point in time.
type Snapshot struct {
	Fields     Fields
	LastUpdate time.Time
}

// MarshalJSON flattens the snapshot: every field at top level plus lastUpdate.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+1)
	for k, v := range s.Fields {
		out[k] = v
	}
	out[LastUpdateKey] = s.LastUpdate.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(Fields, len(raw))
	for k, msg := range raw {
		if k == LastUpdateKey {
			var ts time.Time
			if err := json.Unmarshal(msg, &ts); err != nil {
				return err
			}
			s.LastUpdate = ts
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		fields[k] = v
	}
	s.Fields = fields
	return nil
}

// Store is the shared device state.
//
// All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	fields     Fields
	lastUpdate time.Time
	now        func() time.Time
}

// New creates a Store seeded with defaults. now may be nil (time.Now is used).
// The seed counts as the first write.
func New(defaults Fields, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	fields := make(Fields, len(defaults))
	for k, v := range defaults {
		if k == LastUpdateKey || !v.IsValid() {
			continue
		}
		fields[k] = v
	}
	return &Store{
		fields:     fields,
		lastUpdate: now().UTC(),
		now:        now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Fields: s.fields.Clone(), LastUpdate: s.lastUpdate}
}

// Get returns a single field.
func (s *Store) Get(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.fields[name]
	return v, ok
}

// Len returns the number of fields.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// Merge inserts or overwrites every field in fields and refreshes the
// timestamp. Invalid values and the reserved lastUpdate key are skipped.
// It returns the fields actually applied and the new timestamp.
func (s *Store) Merge(fields Fields) (Fields, time.Time) {
	applied := make(Fields, len(fields))
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range fields {
		if k == LastUpdateKey || !v.IsValid() {
			continue
		}
		s.fields[k] = v
		applied[k] = v
	}
	s.lastUpdate = s.now().UTC()
	return applied, s.lastUpdate
}

// SetField overwrites name only if it already exists. It reports whether
// the write happened; the timestamp is untouched otherwise.
func (s *Store) SetField(name string, v Value) bool {
	if !v.IsValid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fields[name]; !ok {
		return false
	}
	s.fields[name] = v
	s.lastUpdate = s.now().UTC()
	return true
}

// LastUpdate returns the time of the last write.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
