// Package watch reports library files appearing, changing and disappearing in the
// library directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/desertthunder/edbx/internal/metrics"
)

// DefaultSettle is how long a file must be quiet before its event is reported.
const DefaultSettle = 250 * time.Millisecond

// Op is the kind of change seen for a library file.
type Op int

const (
	Created Op = iota
	Changed
	Removed
)

func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a settled change to one library file.
type Event struct {
	File string // base name inside the library directory
	Op   Op
}

func (e Event) String() string {
	return e.File + " " + e.Op.String()
}

// Watcher watches one library directory for *.db files.
type Watcher struct {
	fs     *fsnotify.Watcher
	dir    string
	settle time.Duration
	logger *log.Logger
}

// New starts watching dir. settle <= 0 uses [DefaultSettle].
func New(dir string, settle time.Duration, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch library directory %s: %w", dir, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{fs: fw, dir: dir, settle: settle, logger: logger}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run calls fn for every settled event until ctx is done, then closes the watcher.
// Bursts of writes to one file are reported once; a file created and then written is
// reported as created.
func (w *Watcher) Run(ctx context.Context, fn func(Event)) error {
	defer w.fs.Close()

	pending := make(map[string]Op)
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ev := Event{File: name, Op: pending[name]}
			delete(pending, name)
			metrics.LibraryEventsTotal.WithLabelValues(ev.Op.String()).Inc()
			w.logger.Debug("library file event", "file", ev.File, "op", ev.Op)
			fn(ev)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name, op, ok := convert(event)
			if !ok {
				continue
			}
			if prev, seen := pending[name]; seen && prev == Created && op == Changed {
				op = Created
			}
			pending[name] = op
			timer.Reset(w.settle)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("library watcher error", "err", err)

		case <-timer.C:
			flush()
		}
	}
}

// convert maps an fsnotify event to a library file event. Non-database files,
// including sqlite journals, and chmod events are ignored.
func convert(event fsnotify.Event) (string, Op, bool) {
	name := filepath.Base(event.Name)
	if !strings.EqualFold(filepath.Ext(name), ".db") || strings.HasPrefix(name, ".") {
		return "", 0, false
	}

	switch {
	case event.Has(fsnotify.Create):
		return name, Created, true
	case event.Has(fsnotify.Write):
		return name, Changed, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// a rename's new name arrives as its own create
		return name, Removed, true
	default:
		return "", 0, false
	}
}
