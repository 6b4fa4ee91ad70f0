package models

import "time"

// Event is an occasion attendance is taken for, owned by the organizer user
// that created it.
type Event struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	OwnerID   uint       `gorm:"index;not null"`
	Owner     User       `gorm:"foreignKey:OwnerID;references:ID"`
	Name      string     `gorm:"size:255;not null"`
	Venue     string     `gorm:"size:255"`
	StartsAt  time.Time
}
