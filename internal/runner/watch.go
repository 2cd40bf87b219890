package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watch re-runs iterate whenever a watched directory changes, with a
// debounce window so a burst of writes triggers one rebuild. Each
// iteration is expected to be a full fresh build invocation. Watch
// returns when ctx is cancelled.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, logger *log.Logger, iterate func() error) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no watchable directories")
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if logger != nil {
					logger.Printf("watch: %s %s", event.Op, event.Name)
				}
				if pending {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
				}
				timer.Reset(debounce)
				pending = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Printf("watch error: %v", err)
			}

		case <-timer.C:
			pending = false
			if err := iterate(); err != nil {
				if logger != nil {
					logger.Printf("watch: build failed: %v", err)
				}
			}
		}
	}
}
