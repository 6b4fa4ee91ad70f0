package main

import (
	"log"
	"os"
	"strings"

	"attendance-scanner/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Roles first so the users FK can be applied safely.
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		// Migrate models individually so a failure on one doesn't block others.
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Event{}); err != nil {
			log.Printf("migration warning (events): %v", err)
		}
		if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
			log.Printf("migration warning (attendance_records): %v", err)
		}
		if err := db.AutoMigrate(&models.EventAttendanceMetadata{}); err != nil {
			log.Printf("migration warning (event_attendance_metadata): %v", err)
		}
		if err := db.AutoMigrate(&models.ExclusionEntry{}); err != nil {
			log.Printf("migration warning (exclusion_entries): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}
	seedDB()
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "organizer", Description: "event organizer"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Seed admin user on first boot
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base directory captured card photos are stored under.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for stored scan photos (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}

// loadExclusionLists fetches the event-scoped and global lists for a scan check.
func loadExclusionLists(eventID uint) (eventList, globalList []string, err error) {
	var rows []models.ExclusionEntry
	if err = db.Where("event_id = ? OR event_id IS NULL", eventID).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		if r.EventID != nil {
			eventList = append(eventList, r.Name)
		} else {
			globalList = append(globalList, r.Name)
		}
	}
	return eventList, globalList, nil
}

// replaceExclusionList swaps the whole list for a scope (nil eventID = global)
// in one transaction, so a watcher re-importing a dropped file never leaves a
// half-merged list visible to scans.
func replaceExclusionList(eventID *uint, names []string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("event_id IS NULL")
		if eventID != nil {
			q = tx.Where("event_id = ?", *eventID)
		}
		if err := q.Delete(&models.ExclusionEntry{}).Error; err != nil {
			return err
		}
		for _, n := range names {
			if err := tx.Create(&models.ExclusionEntry{EventID: eventID, Name: n}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
