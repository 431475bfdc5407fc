package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchAndRun runs fn once, then re-runs it every time path is written to,
// until interrupted (--watch, SPEC_FULL.md §B). fn's own errors are printed
// and do not stop the loop, since a broken intermediate edit shouldn't kill
// the watcher.
func watchAndRun(path string, fn func() error) error {
	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch: watch %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(event.Name)
			if err != nil {
				evAbs = event.Name
			}
			if evAbs != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "--- recompiling %s ---\n", path)
			if err := fn(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}
