package bytesource

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// WatchGrammar watches path for writes and invokes onChange(path) each time
// the grammar file is rewritten on disk, so a long-running hexbait session
// can pick up grammar edits without restarting. Grounded on the same
// fsnotify-driven debounce-free watch loop the indexing pipeline uses for
// source file changes; unlike that pipeline this has no batching since
// grammar reloads are rare, interactive events.
//
// The returned stop function closes the underlying watcher and must be
// called to release the OS file descriptor.
func WatchGrammar(path string, onChange func(path string)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange(event.Name)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("bytesource: grammar watch error: %v", werr)
			case <-done:
				return
			}
		}
	}()

	return func() error {
		close(done)
		return watcher.Close()
	}, nil
}
