// Package blocklist loads the ./blocklist side file into a case-insensitive
// host set and optionally watches it for changes with fsnotify, so a
// long-running proxy picks up additions without a restart.
package blocklist

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mason-ferrell/uproxy/internal/log"
)

// List answers "is host blocked?" against a lower-cased exact-match set.
// An absent file is an empty list (spec §6).
type List struct {
	path string
	mu   sync.RWMutex
	set  map[string]struct{}

	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// Load reads path into a List. path may not exist.
func Load(path string) (*List, error) {
	l := &List{path: path, set: map[string]struct{}{}}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *List) reload() error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.mu.Lock()
			l.set = map[string]struct{}{}
			l.mu.Unlock()
			return nil
		}
		return err
	}
	defer f.Close()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		host := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if host == "" {
			continue
		}
		set[host] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	l.set = set
	l.mu.Unlock()
	return nil
}

// Blocked reports whether host (case-insensitive, exact match) is listed.
func (l *List) Blocked(host string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[strings.ToLower(host)]
	return ok
}

// Watch starts an fsnotify watch on the blocklist file's directory,
// reloading whenever the file is written or created. It is a no-op if the
// parent directory can't be watched (e.g. it doesn't exist yet).
func (l *List) Watch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("blocklist: fsnotify unavailable, static only: %v", err)
		return
	}

	dir := dirOf(l.path)
	if err := w.Add(dir); err != nil {
		log.Warnf("blocklist: watch %s: %v", dir, err)
		_ = w.Close()
		return
	}

	l.watcher = w
	l.stop = make(chan struct{})

	go func() {
		for {
			select {
			case <-l.stop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != l.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := l.reload(); err != nil {
						log.Warnf("blocklist: reload %s: %v", l.path, err)
					} else {
						log.Infof("blocklist: reloaded %s", l.path)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warnf("blocklist: watch error: %v", err)
			}
		}
	}()
}

// Close stops the watch goroutine, if started.
func (l *List) Close() error {
	if l.watcher == nil {
		return nil
	}
	close(l.stop)
	return l.watcher.Close()
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "."
	}
	return path[:i]
}
