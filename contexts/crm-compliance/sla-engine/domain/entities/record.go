package entities

import "time"

// MonitoredRecord is the engine's read model of a CRM lead or
// opportunity. The engine never creates or deletes these; the only field
// it ever writes is LastStageChangeOn, via the stage-change stamp.
type MonitoredRecord struct {
	EntityType        EntityType
	RecordID          string
	Owner             string
	Vertical          string
	Stage             string
	CreatedAt         time.Time
	LastStageChangeOn time.Time
	ModifiedAt        time.Time
}

// DwellStart is the baseline timestamp dwell time is measured from.
// Records persisted before the tracker existed have no stage-change
// stamp and fall back to creation time.
func (r MonitoredRecord) DwellStart() time.Time {
	if !r.LastStageChangeOn.IsZero() {
		return r.LastStageChangeOn
	}
	return r.CreatedAt
}

// DwellHours is the elapsed dwell time at the given instant, in hours.
func (r MonitoredRecord) DwellHours(now time.Time) float64 {
	return now.Sub(r.DwellStart()).Hours()
}

// ConversionChild is the opportunity spawned by a converted lead, when
// one exists.
type ConversionChild struct {
	RecordID  string
	CreatedAt time.Time
}

// AlertNotification is an in-app alert raised at detection time.
type AlertNotification struct {
	NotificationID string
	ForUser        string
	EntityType     EntityType
	RecordID       string
	Subject        string
	Body           string
	CreatedAt      time.Time
}
