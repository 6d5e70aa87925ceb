package sessions

import (
	"encoding/json"
	"os"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/sirupsen/logrus"
)

// Store persists session records as session.json inside each session
// directory. Every write goes to a temp file that is renamed into place, so
// readers only ever see a complete old or a complete new record.
type Store struct {
	dir    *ControlDir
	logger *logrus.Entry

	// beforeRename runs after the temp file is written and before the
	// existence re-check. Tests use it to delete the directory mid-save.
	beforeRename func(id string)
}

// NewStore returns a Store over dir.
func NewStore(dir *ControlDir, logger *logrus.Entry) *Store {
	return &Store{dir: dir, logger: logger}
}

// Save validates id and atomically writes rec. A missing session directory
// is recreated with a warning. If the directory disappears between the temp
// write and the rename, the temp file is discarded and SESSION_DIR_DELETED
// is returned.
func (s *Store) Save(id string, rec *Record) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return s.save(id, rec, true)
}

// saveExisting is Save without directory recreation. Background writers use
// it so a session removed by cleanup is never brought back.
func (s *Store) saveExisting(id string, rec *Record) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !s.dir.exists(id) {
		return errors.SessionDirDeleted(id)
	}
	return s.save(id, rec, false)
}

func (s *Store) save(id string, rec *Record, recreate bool) error {
	paths := s.dir.Paths(id)

	if recreate && !s.dir.exists(id) {
		s.logger.WithField("sessionId", id).Warn("Session directory missing, recreating")
		if err := s.dir.Ensure(id); err != nil {
			return errors.SaveSessionFailed(id, err)
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.SaveSessionFailed(id, err)
	}

	tmp := paths.TempMetadata()
	if err := writeFileSync(tmp, data, 0644); err != nil {
		_ = os.Remove(tmp)
		if !s.dir.exists(id) {
			return errors.SessionDirDeleted(id)
		}
		return errors.SaveSessionFailed(id, err)
	}

	if s.beforeRename != nil {
		s.beforeRename(id)
	}

	if !s.dir.exists(id) {
		_ = os.Remove(tmp)
		return errors.SessionDirDeleted(id)
	}

	if err := os.Rename(tmp, paths.Metadata); err != nil {
		_ = os.Remove(tmp)
		if !s.dir.exists(id) {
			return errors.SessionDirDeleted(id)
		}
		return errors.SaveSessionFailed(id, err)
	}

	return nil
}

// Load reads the record for id. A missing record and an unreadable or
// corrupt one both yield SESSION_NOT_FOUND; corruption is logged.
func (s *Store) Load(id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	path := s.dir.Paths(id).Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to read session record")
		}
		return nil, errors.SessionNotFound(id)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Ignoring corrupt session record")
		return nil, errors.SessionNotFound(id)
	}
	return &rec, nil
}

// UpdateStatus sets the status of an existing session and, when given, its
// pid and exit code. Absent values keep what the record already has.
func (s *Store) UpdateStatus(id string, status Status, pid *int, exitCode *int) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown session status: "+string(status)).
			WithDetail(errors.DetailSessionID, id)
	}

	rec, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	rec.Status = status
	if pid != nil {
		p := *pid
		rec.Pid = &p
	}
	if exitCode != nil {
		c := *exitCode
		rec.ExitCode = &c
	}
	if rec.Status == StatusRunning && rec.Pid == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a running session needs a pid").
			WithDetail(errors.DetailSessionID, id)
	}

	if err := s.Save(id, rec); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"sessionId": id,
		"status":    status,
	}).Debug("Session status updated")
	return rec, nil
}

// UpdateName sets the display name of an existing session.
func (s *Store) UpdateName(id, name string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	rec, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	rec.Name = name
	if err := s.Save(id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// writeFileSync writes data to path and fsyncs it before closing.
func writeFileSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
