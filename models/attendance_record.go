package models

import "time"

// Attendance record statuses. "present" is the scan flow default; the others
// exist for manual corrections by organizers.
const (
	StatusPresent = "present"
	StatusFlagged = "flagged"
	StatusManual  = "manual"
)

// AttendanceRecord is one ledger entry: one row per scan action, immutable
// once written. The same subject scanning twice produces two rows; dedup is
// an explicit non-feature (re-entry tracking), not an accident.
type AttendanceRecord struct {
	ID                string `gorm:"primaryKey;size:26"` // ULID
	CreatedAt         time.Time
	EventID           uint    `gorm:"index;not null"`
	Event             Event   `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SubjectIdentifier string  `gorm:"size:32;not null;index"`
	SubjectName       string  `gorm:"size:255;not null"`
	RecordedBy        string  `gorm:"size:255;not null"`
	Status            string  `gorm:"size:32;not null;default:present"`
	Notes             *string `gorm:"size:512"`
	ImagePath         string  `gorm:"size:512"`
}
