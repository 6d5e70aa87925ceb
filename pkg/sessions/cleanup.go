package sessions

import (
	stderrors "errors"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/moby/patternmatcher"
)

// Cleanup removes the session directory for id and everything in it.
// Cleaning up a session that does not exist is a no-op.
func (m *Manager) Cleanup(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !m.dir.exists(id) {
		return nil
	}

	if err := m.dir.Remove(id); err != nil {
		return errors.CleanupFailed(id, err)
	}

	m.logger.WithField("sessionId", id).Info("Session cleaned up")
	return nil
}

// CleanupExited removes every exited session. It keeps going when a single
// removal fails: the returned ids are the sessions actually removed, and the
// error (if any) joins one CLEANUP_FAILED per session that could not be.
func (m *Manager) CleanupExited() ([]string, error) {
	return m.cleanupExitedWhere(func(*Session) bool { return true })
}

// CleanupExitedMatching is CleanupExited restricted to sessions whose id or
// name matches one of the glob patterns (e.g. "build-*"). Patterns starting
// with '!' exclude.
func (m *Manager) CleanupExitedMatching(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return m.CleanupExited()
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid cleanup pattern").
			WithDetail("patterns", patterns)
	}

	return m.cleanupExitedWhere(func(s *Session) bool {
		if ok, err := pm.MatchesOrParentMatches(s.ID); err == nil && ok {
			return true
		}
		if s.Record.Name == "" {
			return false
		}
		ok, err := pm.MatchesOrParentMatches(s.Record.Name)
		return err == nil && ok
	})
}

func (m *Manager) cleanupExitedWhere(match func(*Session) bool) ([]string, error) {
	sessions, err := m.List()
	if err != nil {
		return nil, err
	}

	removed := []string{}
	var failures []error
	for _, s := range sessions {
		if s.Record.Status != StatusExited || !match(s) {
			continue
		}
		if err := m.Cleanup(s.ID); err != nil {
			m.logger.WithError(err).WithField("sessionId", s.ID).Warn("Failed to clean up exited session")
			failures = append(failures, err)
			continue
		}
		removed = append(removed, s.ID)
	}

	return removed, stderrors.Join(failures...)
}
