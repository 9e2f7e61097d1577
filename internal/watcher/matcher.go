package watcher

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// relevantOps are the operations that can change the watched file's content.
// Remove is ignored; a rename-over save is reported as Create.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// matches reports whether ev concerns the watched file.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if ev.Op&relevantOps == 0 {
		return false
	}

	name := filepath.Clean(ev.Name)
	if name == w.path {
		return true
	}

	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return false
	}
	return resolved == w.resolved
}
