package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"attendance-scanner/models"
	"attendance-scanner/pkg/exclusion"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Imports a newline-separated name list into an exclusion scope.
// Scope "global" targets the global list, a numeric id targets that event.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/import_exclusions <global|event-id> <list.txt>")
		os.Exit(2)
	}
	scope := os.Args[1]
	path := os.Args[2]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	names := exclusion.ParseList(string(data))
	if len(names) == 0 {
		log.Fatalf("no names in %s", path)
	}

	var eventID *uint
	if scope != "global" {
		id, err := strconv.ParseUint(scope, 10, 64)
		if err != nil {
			log.Fatalf("scope must be 'global' or an event id, got %q", scope)
		}
		eid := uint(id)
		eventID = &eid
	}

	err = db.Transaction(func(tx *gorm.DB) error {
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
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	fmt.Printf("imported %d names into %s scope\n", len(names), scope)
}
