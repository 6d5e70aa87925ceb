// Package collector holds the daemon's background workers. Each one watches
// the control directory in its own way and sends the resulting session list
// to the engine, which applies it to the store.
package collector

import (
	"context"

	"github.com/dairui1/vibetunnel/internal/daemon/store"
)

// Collector refreshes the session snapshot.
type Collector interface {
	// Name identifies the collector in logs, update sources and
	// /api/config.
	Name() string

	// Run blocks until ctx is cancelled, sending store updates. A non-nil
	// error means the collector gave up; the engine logs it and carries on
	// with the others.
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}
