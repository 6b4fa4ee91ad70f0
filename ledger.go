package main

import (
	"log"
	"time"

	"attendance-scanner/models"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordInput carries everything needed to write one ledger entry.
type recordInput struct {
	EventID           uint
	SubjectIdentifier string
	SubjectName       string
	RecordedBy        string
	Status            string
	Notes             *string
	ImagePath         string
}

// recordAttendance appends a brand-new attendance record (never merging with
// prior rows for the same subject) and bumps the event counter. The counter
// update is a single INSERT ... ON CONFLICT DO UPDATE statement so concurrent
// scanners on the same event cannot lose increments; a plain read-then-write
// here would undercount under contention.
//
// The second return value reports whether the counter was synced. A record
// write that succeeds while the counter update fails leaves the row standing
// and the counter behind by one; that divergence is logged as a monitored
// inconsistency rather than rolled back, since the two writes are independent.
func recordAttendance(gdb *gorm.DB, in recordInput) (models.AttendanceRecord, bool, error) {
	if in.Status == "" {
		in.Status = models.StatusPresent
	}
	now := time.Now().UTC()
	rec := models.AttendanceRecord{
		ID:                ulid.Make().String(),
		EventID:           in.EventID,
		SubjectIdentifier: in.SubjectIdentifier,
		SubjectName:       in.SubjectName,
		RecordedBy:        in.RecordedBy,
		Status:            in.Status,
		Notes:             in.Notes,
		ImagePath:         in.ImagePath,
	}
	if err := gdb.Create(&rec).Error; err != nil {
		return models.AttendanceRecord{}, false, err
	}
	if err := bumpAttendanceCounter(gdb, in.EventID, now); err != nil {
		log.Printf("LEDGER INCONSISTENCY event=%d record=%s: counter increment failed: %v", in.EventID, rec.ID, err)
		return rec, false, nil
	}
	return rec, true, nil
}

// bumpAttendanceCounter atomically increments the per-event counter, creating
// the metadata row with total_attendees=1 when it does not exist yet. First
// concurrent creator wins the insert; everyone else falls into the increment.
func bumpAttendanceCounter(gdb *gorm.DB, eventID uint, now time.Time) error {
	meta := models.EventAttendanceMetadata{EventID: eventID, TotalAttendees: 1, LastUpdated: now}
	return gdb.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_attendees": gorm.Expr("event_attendance_metadata.total_attendees + 1"),
			"last_updated":    now,
		}),
	}).Create(&meta).Error
}
