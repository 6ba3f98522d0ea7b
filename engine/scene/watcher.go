package scene

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/prism/engine/core"
)

// Watcher reloads the scene description when the file changes on disk.
// Parsed descriptions are handed over on a channel so the frame loop applies
// them between frames; materials are never mutated off the frame thread.
type Watcher struct {
	fw      *fsnotify.Watcher
	path    string
	pending chan *Description
	done    chan struct{}
}

func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		core.LogError("failed to create scene watcher: %s", err)
		return nil, err
	}
	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		core.LogError("failed to watch scene directory: %s", err)
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		path:    filepath.Clean(path),
		pending: make(chan *Description, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			desc, err := LoadDescription(w.path)
			if err != nil {
				// Partial writes parse badly; the next event retries.
				continue
			}
			core.LogInfo("scene description `%s` changed, queueing live edits", w.path)
			select {
			case w.pending <- desc:
			default:
				// An unapplied edit is already queued; drop the older one.
				select {
				case <-w.pending:
				default:
				}
				w.pending <- desc
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			core.LogWarn("scene watcher error: %s", err)
		}
	}
}

// Pending returns the channel the frame loop drains for queued edits.
func (w *Watcher) Pending() <-chan *Description {
	return w.pending
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
