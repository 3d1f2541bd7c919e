// Package reload watches the ruleset file for content changes and
// hot-swaps the dispatcher's active rules, grounded on
// original_source/server/src/file_watch.rs's async_watch: a background
// watcher goroutine that reloads on Write events and logs-and-keeps the
// previous ruleset on decode failure.
package reload

import (
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/rules"
)

// RuleReplacer is the narrow dispatcher surface the reload loop needs.
type RuleReplacer interface {
	ReplaceRules(newRules []rules.Rule) (int, error)
}

// Watcher reloads the ruleset file whenever its contents change.
type Watcher struct {
	path       string
	dispatcher RuleReplacer
	log        log.Logger
	fsw        *fsnotify.Watcher
	done       chan struct{}
}

// New creates a Watcher for path, but does not yet start watching.
func New(path string, dispatcher RuleReplacer, logger log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, dispatcher: dispatcher, log: logger, fsw: fsw, done: make(chan struct{})}, nil
}

// Start loads the ruleset once synchronously, then begins watching path
// for further changes on a background goroutine. Returns the initial
// rule count.
func (w *Watcher) Start() (int, error) {
	n, err := w.reload()
	if err != nil {
		w.log.Errorf("could not load initial ruleset %s: %v", w.path, err)
	}

	if err := w.fsw.Add(w.path); err != nil {
		w.log.Warnf("could not watch %s for changes. If you change rules, the server will have to be restarted for them to take effect. %v", w.path, err)
		return n, nil
	}

	go w.run()
	w.log.Infof("watching %s for changes; rules will be reconfigured automatically", w.path)
	return n, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			w.log.Infof("ruleset change detected, reloading rules")
			n, err := w.reload()
			if err != nil {
				w.log.Errorf("could not update rules; the server will keep running on the previous ruleset until this is resolved. %v", err)
				continue
			}
			w.log.Infof("%d rules loaded", n)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() (int, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return 0, err
	}
	ruleset, err := rules.Decode(w.path, data)
	if err != nil {
		return 0, err
	}
	return w.dispatcher.ReplaceRules(ruleset.Rules)
}
