package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"attendance-scanner/pkg/exclusion"
	"attendance-scanner/pkg/scan"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

// recognizer and detector are the two pluggable capabilities of the scan
// pipeline, chosen at startup from env.
var (
	recognizer scan.TextRecognizer
	detector   scan.NameDetector = scan.HeuristicDetector{}
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	recognizer = pickRecognizer()

	// Support a lightweight migrate command: `./attend migrate`
	// Runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	if dir := os.Getenv("EXCLUSION_WATCH_DIR"); dir != "" {
		go func() {
			if err := exclusion.WatchDir(dir, importWatchedList); err != nil {
				log.Printf("exclusion watcher stopped: %v", err)
			}
		}()
	}

	r := gin.Default()
	r.Use(cors.Default())

	setupRoutes(r)

	r.Run(":8081")
}

// pickRecognizer selects the OCR engine: a remote text-detection provider when
// OCR_PROVIDER_URL is set (unless OCR_ENGINE=tesseract forces local), else
// on-device Tesseract.
func pickRecognizer() scan.TextRecognizer {
	engine := strings.ToLower(os.Getenv("OCR_ENGINE"))
	url := os.Getenv("OCR_PROVIDER_URL")
	if engine != "tesseract" && url != "" {
		log.Printf("using remote OCR provider %s", url)
		return scan.NewRemoteRecognizer(url, os.Getenv("OCR_API_KEY"))
	}
	log.Printf("using local tesseract OCR")
	return scan.TesseractRecognizer{}
}

// importWatchedList lands a hot-reloaded list file in the store. The file name
// (minus .txt) keys the scope: "global" or a numeric event id.
func importWatchedList(key string, names []string) {
	if key == "global" {
		if err := replaceExclusionList(nil, names); err != nil {
			log.Printf("global exclusion import failed: %v", err)
		}
		return
	}
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		log.Printf("exclusion import: ignoring file with non-event key %q", key)
		return
	}
	eid := uint(id)
	if err := replaceExclusionList(&eid, names); err != nil {
		log.Printf("event %d exclusion import failed: %v", eid, err)
	}
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
