package sessions

import (
	"os"
	"sort"

	"github.com/dairui1/vibetunnel/errors"
)

// List returns every loadable session under the control root, newest first.
// Running sessions are reconciled on the way. Entries that are not session
// directories, or whose record is missing or corrupt, are skipped; only a
// failure to read the root itself is returned as LIST_SESSIONS_FAILED.
func (m *Manager) List() ([]*Session, error) {
	entries, err := os.ReadDir(m.dir.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return []*Session{}, nil
		}
		return nil, errors.ListSessionsFailed(m.dir.Root(), err)
	}

	sessions := make([]*Session, 0, len(entries))
	for _, entry := range entries {
		id := entry.Name()
		if !entry.IsDir() || ValidateID(id) != nil {
			continue
		}

		rec, err := m.store.Load(id)
		if err != nil {
			continue
		}

		view, err := m.view(id, rec)
		if err != nil {
			continue
		}
		sessions = append(sessions, view)
	}

	SortSessions(sessions)
	return sessions, nil
}

// Get returns the listing view of one session.
func (m *Manager) Get(id string) (*Session, error) {
	rec, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	return m.view(id, rec)
}

// view reconciles rec and attaches the id and lastModified.
func (m *Manager) view(id string, rec *Record) (*Session, error) {
	current, _, err := m.reconciler.Reconcile(id, rec)
	if err != nil {
		if errors.Is(err, errors.ErrCodeSessionDirDeleted) {
			return nil, errors.SessionNotFound(id)
		}
		// Reconcile only fails after finding the process dead. Report the
		// demotion anyway; the next pass retries the write.
		m.logger.WithError(err).WithField("sessionId", id).Warn("Failed to persist reconciled status")
		current = demote(rec)
	}

	lastModified := current.StartedAt
	if info, err := os.Stat(m.dir.Paths(id).Stdout); err == nil {
		lastModified = info.ModTime()
	}

	return &Session{ID: id, Record: current, LastModified: lastModified}, nil
}

// SortSessions orders sessions by startedAt descending. Sessions without a
// start time sort as the epoch; ties are broken by id.
func SortSessions(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		ti, tj := sessions[i].Record.sortTime(), sessions[j].Record.sortTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
