// Package engine orchestrates background collectors for the daemon.
package engine

import (
	"context"
	"sync"

	"github.com/dairui1/vibetunnel/internal/daemon/collector"
	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/sirupsen/logrus"
)

// Engine manages and runs all collectors. Every update, whether from a
// collector or published by an API handler, reaches the store through one
// consumer goroutine so subscribers see them in order.
type Engine struct {
	store      *store.Store
	collectors []collector.Collector
	logger     *logrus.Entry
	updates    chan store.Update

	mu      sync.Mutex
	running bool
}

// New creates a new Engine instance.
func New(st *store.Store, logger *logrus.Entry) *Engine {
	return &Engine{
		store:   st,
		logger:  logger,
		updates: make(chan store.Update, 100),
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Collectors returns the names of the registered collectors.
func (e *Engine) Collectors() []string {
	names := make([]string, 0, len(e.collectors))
	for _, c := range e.collectors {
		names = append(names, c.Name())
	}
	return names
}

// Publish hands u to the store. When the engine is not running, or its
// queue is full, the update is applied directly.
func (e *Engine) Publish(u store.Update) {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	if running {
		select {
		case e.updates <- u:
			return
		default:
		}
	}
	e.store.ApplyUpdate(u)
}

// Start runs all collectors and blocks until context is canceled.
func (e *Engine) Start(ctx context.Context) {
	updates := e.updates
	var wg sync.WaitGroup

	e.setRunning(true)
	defer e.setRunning(false)

	// 1. Start Update Consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				e.store.ApplyUpdate(u)
			}
		}
	}()

	// 2. Start Collectors
	for _, c := range e.collectors {
		wg.Add(1)
		go func(col collector.Collector) {
			defer wg.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, e.store, updates); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	wg.Wait()
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}
