// Package watch reports changes to the files behind classpath entries so
// cached classes can be invalidated.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/daimatz/jclass/pkg/classpath"
)

// Source is the classpath being watched. *classpath.Resolver implements
// it.
type Source interface {
	Classpath() classpath.Classpath
	Owner(path string) (string, bool)
}

// Change is a debounced modification under a classpath entry.
type Change struct {
	// Entry is the classpath entry the file belongs to.
	Entry string
	// Path is the file that changed.
	Path string
	// Class is the class name for a .class file below a directory entry,
	// or "" when the whole entry must be invalidated.
	Class string
}

// Watcher monitors classpath entries with fsnotify. Directory entries are
// watched recursively; archive and class file entries through their parent
// directory.
type Watcher struct {
	Changes <-chan Change // Read-only external channel

	changes  chan Change
	stop     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	source   Source
	logger   *slog.Logger
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher for the entries of src.
func New(src Source, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		source:   src,
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds every existing entry and begins watching. Missing entries
// are skipped.
func (w *Watcher) Start() error {
	for _, entry := range w.source.Classpath().Entries() {
		info, err := os.Stat(entry)
		if err != nil {
			w.logger.Debug("not watching missing entry", "entry", entry)
			continue
		}
		if info.IsDir() {
			if err := w.addTree(entry); err != nil {
				return err
			}
			continue
		}
		if err := w.watcher.Add(filepath.Dir(entry)); err != nil {
			return err
		}
	}

	go w.loop()
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Stop closes the watcher and the Changes channel. It must only be called
// after a successful Start.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Debug("watching new directory failed", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					delete(pending, file)
					c, ok := w.classify(file)
					if !ok {
						continue
					}
					select {
					case w.changes <- c:
					case <-w.stop:
						return
					}
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) classify(path string) (Change, bool) {
	entry, ok := w.source.Owner(path)
	if !ok {
		return Change{}, false
	}
	c := Change{Entry: entry, Path: path}
	if filepath.Clean(entry) == filepath.Clean(path) {
		return c, true
	}
	rel, err := filepath.Rel(entry, path)
	if err != nil {
		return c, true
	}
	if name, ok := strings.CutSuffix(filepath.ToSlash(rel), ".class"); ok {
		c.Class = name
		return c, true
	}
	// Other resources under a directory do not affect parsed classes.
	return Change{}, false
}
