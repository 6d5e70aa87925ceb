package sessions

import (
	"fmt"
	"os"
)

// ControlDir is the root directory holding one subdirectory per session.
// The root is injected by the caller; this package never picks a default.
type ControlDir struct {
	root string
}

// NewControlDir returns a ControlDir for root, creating root and its parents
// if needed.
func NewControlDir(root string) (*ControlDir, error) {
	if root == "" {
		return nil, fmt.Errorf("control directory must not be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control directory %s: %w", root, err)
	}
	return &ControlDir{root: root}, nil
}

// Root returns the control root path.
func (c *ControlDir) Root() string {
	return c.root
}

// Paths returns the derived locations for id. The id must already be valid.
func (c *ControlDir) Paths(id string) Paths {
	return pathsFor(c.root, id)
}

// Ensure creates the session directory for id. Existing directories are fine.
func (c *ControlDir) Ensure(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return os.MkdirAll(c.Paths(id).Dir, 0755)
}

// Exists reports whether the session directory for id is present.
func (c *ControlDir) Exists(id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}
	return c.exists(id), nil
}

// exists is Exists for ids the caller has already validated.
func (c *ControlDir) exists(id string) bool {
	info, err := os.Stat(c.Paths(id).Dir)
	return err == nil && info.IsDir()
}

// Remove deletes the session directory and everything in it. A missing
// directory is not an error.
func (c *ControlDir) Remove(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return os.RemoveAll(c.Paths(id).Dir)
}
