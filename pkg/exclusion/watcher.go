package exclusion

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ImportFunc receives a parsed list for a scope key. The key is the file name
// without extension: "global" targets the global list, anything else is an
// event id.
type ImportFunc func(key string, names []string)

// WatchDir watches dir for dropped/updated .txt list files and imports them.
// Blocks until the watcher fails; run it on its own goroutine.
func WatchDir(dir string, imp ImportFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("exclusion watcher: watching %s", dir)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".txt") {
				continue
			}
			importFile(ev.Name, imp)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("exclusion watcher error: %v", err)
		}
	}
}

func importFile(path string, imp ImportFunc) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("exclusion import read %s: %v", path, err)
		return
	}
	names := ParseList(string(data))
	if len(names) == 0 {
		return
	}
	key := strings.TrimSuffix(filepath.Base(path), ".txt")
	imp(key, names)
	log.Printf("exclusion import: %s -> %d names", key, len(names))
}
