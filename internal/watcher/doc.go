// Package watcher re-runs a callback whenever a catalog file changes.
//
// The Watcher subscribes to the file's parent directory through fsnotify so
// that editors which save by writing a temporary file and renaming it over
// the original are still observed. Bursts of events are coalesced: the
// callback runs once the file has been quiet for the debounce interval.
//
// Example usage:
//
//	w, err := watcher.New("catalog.yaml", func() error {
//		_, err := seeder.Run(ctx, opts)
//		return err
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Blocks until ctx is cancelled, for example by SIGINT.
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package watcher
