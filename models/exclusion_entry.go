package models

import "time"

// ExclusionEntry is one no-entry name. EventID nil means the entry belongs to
// the global list; otherwise it is scoped to that event.
type ExclusionEntry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	EventID   *uint  `gorm:"index"`
	Name      string `gorm:"size:255;not null"`
}
