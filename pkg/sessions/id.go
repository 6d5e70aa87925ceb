package sessions

import (
	"regexp"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/util/sanitize"
	"github.com/google/uuid"
)

// idPattern is the complete session id alphabet. Ids become directory names,
// so anything that could name a parent or nested path is rejected.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID returns INVALID_SESSION_ID unless id is non-empty and made only
// of letters, digits, '_' and '-'. It never touches the filesystem.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errors.InvalidSessionID(id)
	}
	return nil
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// IDFromName derives a readable id from a display name, e.g. "npm run dev"
// becomes "npm-run-dev-1a2b3c4d". Names with no usable characters fall back
// to NewID.
func IDFromName(name string) string {
	slug := sanitize.ForSessionID(name)
	if slug == "" {
		return NewID()
	}
	return slug + "-" + uuid.NewString()[:8]
}
