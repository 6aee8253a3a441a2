package device

import (
	"time"

	"github.com/nerrad567/relayhub/internal/infrastructure/config"
)

// Type is the device category.
type Type string

// Known device types. Other values are allowed and passed through as-is.
const (
	TypeSensor   Type = "sensor"
	TypeActuator Type = "actuator"
)

// Record is the registry entry for one device.
//
// ID is immutable after creation. Online and LastSeen are the only fields
// that change, and only through Registry.MarkOnline/MarkOffline.
type Record struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     Type       `json:"type"`
	Location string     `json:"location"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen"`
}

// clone returns a copy that shares no memory with r.
func (r Record) clone() Record {
	if r.LastSeen != nil {
		ts := *r.LastSeen
		r.LastSeen = &ts
	}
	return r
}

// RecordsFromConfig converts the devices section of the config file.
func RecordsFromConfig(cfgs []config.DeviceConfig) []Record {
	out := make([]Record, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, Record{
			ID:       c.ID,
			Name:     c.Name,
			Type:     Type(c.Type),
			Location: c.Location,
		})
	}
	return out
}
