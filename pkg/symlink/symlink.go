// Package symlink creates, verifies and removes the symbolic links that
// connect tracked filesystem paths to their source-control counterparts.
// Its hard invariant is data-loss prevention: a regular file or a foreign
// link at a target path is never silently replaced.
package symlink

import (
	"io/fs"
	"os"
	"path/filepath"

	"dotconf/pkg/errors"
	"dotconf/pkg/logging"
	"dotconf/pkg/types"
)

// Manager performs symlink operations through a types.FS.
type Manager struct {
	fs types.FS
}

// NewManager creates a Manager on the given filesystem
func NewManager(filesystem types.FS) *Manager {
	return &Manager{fs: filesystem}
}

// Status classifies what currently exists at path relative to the expected
// link target. The second return value is the actual link destination when
// path is a symlink.
func (m *Manager) Status(path, wantTarget string) (types.LinkState, string, error) {
	info, err := m.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.LinkMissing, "", nil
		}
		return types.LinkMissing, "", errors.Wrapf(err, errors.ErrIoFailure, "cannot stat %q", path)
	}

	if info.Mode()&fs.ModeSymlink == 0 {
		return types.LinkRegularFile, "", nil
	}

	dest, err := m.fs.Readlink(path)
	if err != nil {
		return types.LinkMissing, "", errors.Wrapf(err, errors.ErrIoFailure, "cannot read link %q", path)
	}
	if filepath.Clean(dest) == filepath.Clean(wantTarget) {
		return types.LinkCorrect, dest, nil
	}
	return types.LinkWrong, dest, nil
}

// Link creates a symlink at target pointing at source. An already-correct
// link is a no-op; a regular file or a link to somewhere else fails with
// SYMLINK_CONFLICT rather than being overwritten.
func (m *Manager) Link(source, target string) error {
	logger := logging.GetLogger("symlink")

	state, dest, err := m.Status(target, source)
	if err != nil {
		return err
	}
	switch state {
	case types.LinkCorrect:
		logger.Trace().Str("target", target).Msg("link already correct")
		return nil
	case types.LinkRegularFile:
		return errors.Newf(errors.ErrSymlinkConflict,
			"%q exists and is not a link to %q", target, source).
			WithDetail("target", target).WithDetail("source", source)
	case types.LinkWrong:
		return errors.Newf(errors.ErrSymlinkConflict,
			"%q is a link to %q, not %q", target, dest, source).
			WithDetail("target", target).WithDetail("source", source)
	}

	if err := m.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create parent of %q", target)
	}
	if err := m.fs.Symlink(source, target); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot link %q -> %q", target, source)
	}

	logger.Debug().Str("source", source).Str("target", target).Msg("symlink created")
	return nil
}

// Unlink removes the symlink at target, but only if it currently points at
// source. Anything else fails with SYMLINK_CONFLICT.
func (m *Manager) Unlink(source, target string) error {
	state, dest, err := m.Status(target, source)
	if err != nil {
		return err
	}
	if state != types.LinkCorrect {
		return errors.Newf(errors.ErrSymlinkConflict,
			"refusing to remove %q (state %s, points at %q)", target, state, dest).
			WithDetail("target", target)
	}
	if err := m.fs.Remove(target); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot remove link %q", target)
	}

	logger := logging.GetLogger("symlink")
	logger.Debug().Str("target", target).Msg("symlink removed")
	return nil
}
