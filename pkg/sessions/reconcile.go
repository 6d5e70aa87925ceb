package sessions

import (
	"os"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/process"
	"github.com/sirupsen/logrus"
)

// Reconciler demotes running sessions whose process has died. It only ever
// moves a record from running to exited; it never deletes and never revives.
type Reconciler struct {
	store  *Store
	dir    *ControlDir
	alive  process.Checker
	logger *logrus.Entry
}

// NewReconciler returns a Reconciler. A nil checker means process.IsAlive.
func NewReconciler(store *Store, dir *ControlDir, alive process.Checker, logger *logrus.Entry) *Reconciler {
	if alive == nil {
		alive = process.IsAlive
	}
	return &Reconciler{store: store, dir: dir, alive: alive, logger: logger}
}

// Reconcile checks one record. When rec is running with a dead pid, the
// record is marked exited (exit code 1 unless one is already set), persisted,
// and returned with changed=true. Otherwise rec is returned untouched.
func (r *Reconciler) Reconcile(id string, rec *Record) (updated *Record, changed bool, err error) {
	if rec == nil || rec.Status != StatusRunning || rec.Pid == nil {
		return rec, false, nil
	}
	if r.alive(*rec.Pid) {
		return rec, false, nil
	}

	updated = demote(rec)
	if err := r.store.saveExisting(id, updated); err != nil {
		return rec, false, err
	}

	r.logger.WithFields(logrus.Fields{
		"sessionId": id,
		"pid":       *rec.Pid,
		"exitCode":  *updated.ExitCode,
	}).Info("Marked dead session as exited")
	return updated, true, nil
}

// ReconcileAll runs one pass over every session under the control root and
// returns the ids it demoted. Individual failures are logged and skipped.
func (r *Reconciler) ReconcileAll() ([]string, error) {
	entries, err := os.ReadDir(r.dir.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.ListSessionsFailed(r.dir.Root(), err)
	}

	var demoted []string
	for _, entry := range entries {
		id := entry.Name()
		if !entry.IsDir() || ValidateID(id) != nil {
			continue
		}

		rec, err := r.store.Load(id)
		if err != nil {
			continue
		}

		_, changed, err := r.Reconcile(id, rec)
		if err != nil {
			r.logger.WithError(err).WithField("sessionId", id).Warn("Failed to reconcile session")
			continue
		}
		if changed {
			demoted = append(demoted, id)
		}
	}
	return demoted, nil
}

// demote returns a copy of rec marked exited, keeping any recorded exit code.
func demote(rec *Record) *Record {
	out := rec.Clone()
	out.Status = StatusExited
	if out.ExitCode == nil {
		code := DefaultExitCode
		out.ExitCode = &code
	}
	return out
}
