// Package sessions implements the on-disk session store shared by every
// process that hosts, lists or drives terminal sessions.
//
// Layout under the control root:
//
//	<root>/<id>/session.json   record, replaced atomically by rename
//	<root>/<id>/stdin          named pipe (or plain file) carrying input
//	<root>/<id>/stdout         raw output appended by the PTY host
//
// The filesystem is the only coordination medium. Each record has a single
// writer (its PTY host); any number of readers and a periodic reconciler may
// run alongside it.
package sessions

import (
	"os"
	"time"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/process"
	"github.com/sirupsen/logrus"
)

// Manager ties the control directory, record store and reconciler together
// around one control root.
type Manager struct {
	dir        *ControlDir
	store      *Store
	reconciler *Reconciler
	logger     *logrus.Entry
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger *logrus.Entry
	alive  process.Checker
	now    func() time.Time
}

// WithLogger sets the logger used by the manager and its components.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *managerOptions) { o.logger = logger }
}

// WithLivenessChecker replaces process.IsAlive, mainly for tests.
func WithLivenessChecker(alive process.Checker) Option {
	return func(o *managerOptions) { o.alive = alive }
}

// WithClock replaces time.Now for stamping startedAt.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) { o.now = now }
}

// NewManager opens (and if necessary creates) the control root.
func NewManager(root string, opts ...Option) (*Manager, error) {
	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("sessions")
	}
	if o.now == nil {
		o.now = time.Now
	}

	dir, err := NewControlDir(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open control directory").
			WithDetail("controlDir", root)
	}

	store := NewStore(dir, o.logger)
	return &Manager{
		dir:        dir,
		store:      store,
		reconciler: NewReconciler(store, dir, o.alive, o.logger),
		logger:     o.logger,
		now:        o.now,
	}, nil
}

// Root returns the control root.
func (m *Manager) Root() string { return m.dir.Root() }

// Dir returns the control directory.
func (m *Manager) Dir() *ControlDir { return m.dir }

// Store returns the record store.
func (m *Manager) Store() *Store { return m.store }

// Reconciler returns the liveness reconciler.
func (m *Manager) Reconciler() *Reconciler { return m.reconciler }

// Paths returns the derived paths for a valid id.
func (m *Manager) Paths(id string) (Paths, error) {
	if err := ValidateID(id); err != nil {
		return Paths{}, err
	}
	return m.dir.Paths(id), nil
}

// CreateOptions describes a new session.
type CreateOptions struct {
	// ID is used as-is when set. Otherwise one is derived from Name, or
	// generated.
	ID      string
	Name    string
	Cmdline []string
	Cwd     string
}

// Create makes the session directory, its stdin channel and an empty stdout,
// and saves a record in the starting state.
func (m *Manager) Create(opts CreateOptions) (*Session, error) {
	id := opts.ID
	if id == "" {
		if opts.Name != "" {
			id = IDFromName(opts.Name)
		} else {
			id = NewID()
		}
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	paths := m.dir.Paths(id)
	if _, err := os.Stat(paths.Metadata); err == nil {
		return nil, errors.SessionExists(id)
	}

	if err := m.dir.Ensure(id); err != nil {
		return nil, errors.SaveSessionFailed(id, err)
	}

	kind, err := CreateChannel(paths.Stdin)
	if err != nil {
		return nil, errors.SaveSessionFailed(id, err)
	}

	stdout, err := os.OpenFile(paths.Stdout, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.SaveSessionFailed(id, err)
	}
	stdout.Close()

	rec := &Record{
		Cmdline:   opts.Cmdline,
		Cwd:       opts.Cwd,
		Name:      opts.Name,
		Status:    StatusStarting,
		StartedAt: m.now().UTC(),
	}
	if err := m.store.Save(id, rec); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"sessionId": id,
		"stdin":     kind,
	}).Info("Session created")

	return &Session{ID: id, Record: rec, LastModified: rec.StartedAt}, nil
}

// UpdateStatus is Store.UpdateStatus.
func (m *Manager) UpdateStatus(id string, status Status, pid *int, exitCode *int) (*Record, error) {
	return m.store.UpdateStatus(id, status, pid, exitCode)
}

// UpdateName is Store.UpdateName.
func (m *Manager) UpdateName(id, name string) (*Record, error) {
	return m.store.UpdateName(id, name)
}

// SendInput writes raw bytes to the session's stdin channel.
func (m *Manager) SendInput(id string, data []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return WriteChannel(id, m.dir.Paths(id).Stdin, data)
}

// SendKey writes the byte sequence for a named key such as "enter" or
// "arrow_up".
func (m *Manager) SendKey(id, key string) error {
	seq, err := KeySequence(key)
	if err != nil {
		return err
	}
	return m.SendInput(id, seq)
}

// ReconcileAll runs one liveness pass over the control root.
func (m *Manager) ReconcileAll() ([]string, error) {
	return m.reconciler.ReconcileAll()
}
