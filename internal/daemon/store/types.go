// Package store provides the in-memory session snapshot for the session
// monitor daemon.
package store

import (
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// State is the daemon's current view of the control directory.
type State struct {
	Sessions  map[string]*sessions.Session `json:"sessions"` // Keyed by ID
	UpdatedAt time.Time                    `json:"updatedAt"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateSessions UpdateType = "sessions"
	UpdateRemoved  UpdateType = "removed"
)

// Update represents a change to the state.
type Update struct {
	Type    UpdateType
	Source  string // Which collector or handler produced it (e.g. "reconcile", "watch", "api")
	Scanned int    // Number of sessions in the payload
	Payload interface{}
}
