package models

import "time"

// EventAttendanceMetadata is the singleton per-event counter row. Invariant:
// TotalAttendees equals the number of AttendanceRecords ever written for the
// event; it only moves up, and only via the ledger's atomic upsert.
type EventAttendanceMetadata struct {
	ID             uint  `gorm:"primaryKey"`
	EventID        uint  `gorm:"uniqueIndex;not null"`
	TotalAttendees int64 `gorm:"not null;default:0"`
	LastUpdated    time.Time
}

// TableName keeps the singular-ish name the rest of the system refers to.
func (EventAttendanceMetadata) TableName() string { return "event_attendance_metadata" }
