package entities

import (
	"strings"
	"time"
)

// BreachEvent is the durable record of one detected SLA violation. The
// log is append-only: events are inserted once per dedup key and never
// updated or deleted by the engine.
type BreachEvent struct {
	BreachID      string
	Vertical      string
	EntityType    EntityType
	RecordID      string
	RecordOwner   string
	Stage         string
	HoursExceeded float64
	DwellStartAt  time.Time
	DetectedAt    time.Time
	Recipient     string
	Message       string
}

// DedupKey identifies one real-world breach occurrence. The key is
// recipient-inclusive so a record escalating to several managers yields
// one event per manager, while repeated scans stay no-ops.
func (b BreachEvent) DedupKey() string {
	return strings.Join([]string{
		string(b.EntityType),
		strings.TrimSpace(b.RecordID),
		strings.TrimSpace(b.Stage),
		NormalizeEmail(b.Recipient),
	}, "|")
}

// NormalizeEmail canonicalizes an address for grouping and dedup use.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
