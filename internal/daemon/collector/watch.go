package collector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatchCollector republishes the session list shortly after anything
// structural changes under the control root: a session directory appearing
// or vanishing, or a record being replaced. Output and input traffic is
// ignored.
type WatchCollector struct {
	mgr      *sessions.Manager
	debounce time.Duration
	logger   *logrus.Entry

	mu      sync.Mutex
	watched map[string]bool
}

// NewWatchCollector creates a WatchCollector. Bursts of events closer
// together than debounce produce a single refresh.
func NewWatchCollector(mgr *sessions.Manager, debounce time.Duration, logger *logrus.Entry) *WatchCollector {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &WatchCollector{
		mgr:      mgr,
		debounce: debounce,
		logger:   logger,
		watched:  make(map[string]bool),
	}
}

// Name returns the collector's name.
func (c *WatchCollector) Name() string { return "watch" }

// Run watches until ctx is cancelled.
func (c *WatchCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := c.mgr.Root()
	if err := watcher.Add(root); err != nil {
		return err
	}
	c.watchSessionDirs(watcher, root)

	timer := time.NewTimer(c.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !c.relevant(watcher, root, event) {
				continue
			}
			c.logger.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("Control directory changed")
			timer.Reset(c.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WithError(err).Warn("Watcher error")

		case <-timer.C:
			if _, err := c.mgr.ReconcileAll(); err != nil {
				c.logger.WithError(err).Warn("Reconcile after change failed")
			}
			publish(ctx, c.mgr, c.Name(), updates, c.logger)
		}
	}
}

// relevant reports whether event should trigger a refresh, adding watches
// for newly created session directories on the way.
func (c *WatchCollector) relevant(watcher *fsnotify.Watcher, root string, event fsnotify.Event) bool {
	dir := filepath.Dir(event.Name)

	if dir == root {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				c.add(watcher, event.Name)
			}
		}
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			c.forget(event.Name)
		}
		return sessions.ValidateID(filepath.Base(event.Name)) == nil
	}

	if filepath.Dir(dir) != root {
		return false
	}
	return filepath.Base(event.Name) == sessions.MetadataFile &&
		(event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove))
}

func (c *WatchCollector) watchSessionDirs(watcher *fsnotify.Watcher, root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read control directory")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() && sessions.ValidateID(entry.Name()) == nil {
			c.add(watcher, filepath.Join(root, entry.Name()))
		}
	}
}

func (c *WatchCollector) add(watcher *fsnotify.Watcher, dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watched[dir] {
		return
	}
	if err := watcher.Add(dir); err != nil {
		c.logger.WithError(err).WithField("dir", dir).Debug("Failed to watch session directory")
		return
	}
	c.watched[dir] = true
}

func (c *WatchCollector) forget(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watched, dir)
}
