package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a file-backed document for changes made by other processes.
type Watcher struct {
	doc     *Document
	fsw     *fsnotify.Watcher
	changes chan Identity
	errs    chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch starts watching d's file until ctx is done or Close is called. When the file's content stops matching the document's text (someone else wrote it),
// the document's version is bumped and the new Identity is sent on Changes. Writes made by Save don't count.
//
// The file's directory is watched rather than the file, so editors that save by renaming a temp file over the original are noticed.
func (d *Document) Watch(ctx context.Context) (*Watcher, error) {
	if d.path == "" {
		return nil, ErrNoPath
	}
	abs, err := filepath.Abs(d.path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		doc:     d,
		fsw:     fsw,
		changes: make(chan Identity, 8),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop(ctx, abs)
	return w, nil
}

// Changes delivers the document's identity after each external change. Sends never block: if the channel is full, the notification is dropped (the
// version is still bumped).
func (w *Watcher) Changes() <-chan Identity {
	return w.changes
}

// Errors delivers errors from the underlying watcher.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context, path string) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if w.changedOnDisk(path) {
				select {
				case w.changes <- w.doc.bump():
				default:
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// changedOnDisk reports whether the file's content differs from the document's text. A missing file counts as changed.
func (w *Watcher) changedOnDisk(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return string(b) != w.doc.String()
}
