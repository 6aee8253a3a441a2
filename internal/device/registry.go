package device

import (
	"fmt"
	"sync"
	"time"
)

// Registry is the fixed set of known devices, kept in insertion order.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*Record
}

// NewRegistry creates a registry from seed. Every record starts offline with
// no LastSeen, whatever the seed says.
func NewRegistry(seed []Record) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(seed)),
		records: make(map[string]*Record, len(seed)),
	}
	for i, rec := range seed {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: seed[%d] has empty id", ErrInvalidDevice, i)
		}
		if _, dup := r.records[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDevice, rec.ID)
		}
		rec.Online = false
		rec.LastSeen = nil
		r.records[rec.ID] = &rec
		r.order = append(r.order, rec.ID)
	}
	return r, nil
}

// List returns copies of all records in insertion order.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].clone())
	}
	return out
}

// Find returns a copy of the record for id.
func (r *Registry) Find(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// MarkOnline sets Online and LastSeen. It reports whether id is known;
// unknown ids are ignored.
func (r *Registry) MarkOnline(id string, at time.Time) bool {
	return r.setPresence(id, true, at)
}

// MarkOffline clears Online and sets LastSeen. Unknown ids are ignored.
func (r *Registry) MarkOffline(id string, at time.Time) bool {
	return r.setPresence(id, false, at)
}

func (r *Registry) setPresence(id string, online bool, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return false
	}
	ts := at.UTC()
	rec.Online = online
	rec.LastSeen = &ts
	return true
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// OnlineCount returns the number of devices currently marked online.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.records {
		if rec.Online {
			n++
		}
	}
	return n
}
