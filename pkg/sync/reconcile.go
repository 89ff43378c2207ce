package sync

import (
	"bytes"

	"dotconf/pkg/errors"
	"dotconf/pkg/report"
	"dotconf/pkg/types"
)

// configReconciler converges plain config entries via move + symlink.
type configReconciler struct {
	e *Engine
}

func (r *configReconciler) reconcile(entry types.TrackedEntry, direction types.SyncDirection) report.Outcome {
	if direction == types.FromFilesystem {
		return r.push(entry)
	}
	return r.pull(entry)
}

// push makes the filesystem copy canonical: its bytes move into source
// control and the filesystem path becomes a symlink.
func (r *configReconciler) push(entry types.TrackedEntry) report.Outcome {
	e := r.e
	state, dest, err := e.links.Status(entry.FilesystemPath, entry.SourceControlPath)
	if err != nil {
		return failed(entry, err)
	}

	switch state {
	case types.LinkCorrect:
		return converged(entry)

	case types.LinkRegularFile:
		data, err := e.fs.ReadFile(entry.FilesystemPath)
		if err != nil {
			return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot read %q", entry.FilesystemPath))
		}
		if e.scExists(entry.SourceControlPath) {
			// The path was linked once and has been independently
			// recreated as a plain file. Overwriting either side could
			// discard edits, so this is the user's call.
			scCopy, err := e.fs.ReadFile(entry.SourceControlPath)
			if err != nil {
				return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot read %q", entry.SourceControlPath))
			}
			if !bytes.Equal(data, scCopy) {
				reason := errors.Newf(errors.ErrSymlinkConflict,
					"%q was recreated as a regular file and differs from the source-control copy", entry.FilesystemPath)
				return conflicted(entry, reason, report.Divergence(data, scCopy))
			}
			if err := e.fs.Remove(entry.FilesystemPath); err != nil {
				return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot remove %q", entry.FilesystemPath))
			}
			if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
				return failed(entry, err)
			}
			return converged(entry)
		}
		if err := e.writeAtomic(entry.SourceControlPath, data, 0644); err != nil {
			return failed(entry, err)
		}
		if err := e.fs.Remove(entry.FilesystemPath); err != nil {
			return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot remove %q after move", entry.FilesystemPath))
		}
		if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
			return failed(entry, err)
		}
		return converged(entry)

	case types.LinkMissing:
		// Nothing local; if source control already has the file, converge
		// by linking (fresh machine with an existing dotfiles checkout)
		if e.scExists(entry.SourceControlPath) {
			if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
				return failed(entry, err)
			}
			return converged(entry)
		}
		return failed(entry, errors.Newf(errors.ErrIoFailure,
			"%q exists on neither side", entry.FilesystemPath))

	default: // LinkWrong
		return conflicted(entry, errors.Newf(errors.ErrSymlinkConflict,
			"%q is a link to %q, not %q", entry.FilesystemPath, dest, entry.SourceControlPath), "")
	}
}

// pull makes the source-control copy canonical: the filesystem path is
// linked to it. An independent regular file at the filesystem path is a
// conflict, never an overwrite.
func (r *configReconciler) pull(entry types.TrackedEntry) report.Outcome {
	e := r.e
	if !e.scExists(entry.SourceControlPath) {
		return failed(entry, errors.Newf(errors.ErrIoFailure,
			"no source-control copy at %q", entry.SourceControlPath))
	}

	state, dest, err := e.links.Status(entry.FilesystemPath, entry.SourceControlPath)
	if err != nil {
		return failed(entry, err)
	}

	switch state {
	case types.LinkCorrect:
		return converged(entry)

	case types.LinkMissing:
		if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
			return failed(entry, err)
		}
		return converged(entry)

	case types.LinkRegularFile:
		reason := errors.Newf(errors.ErrSymlinkConflict,
			"%q is an independent regular file", entry.FilesystemPath)
		return conflicted(entry, reason, r.divergence(entry))

	default: // LinkWrong
		return conflicted(entry, errors.Newf(errors.ErrSymlinkConflict,
			"%q is a link to %q, not %q", entry.FilesystemPath, dest, entry.SourceControlPath), "")
	}
}

// divergence renders the difference between both sides of a conflicted
// config entry, best effort.
func (r *configReconciler) divergence(entry types.TrackedEntry) string {
	fsCopy, err := r.e.fs.ReadFile(entry.FilesystemPath)
	if err != nil {
		return ""
	}
	scCopy, err := r.e.fs.ReadFile(entry.SourceControlPath)
	if err != nil {
		return ""
	}
	return report.Divergence(fsCopy, scCopy)
}

// secretReconciler converges secret entries via PGP encryption.
type secretReconciler struct {
	e *Engine
}

func (r *secretReconciler) reconcile(entry types.TrackedEntry, direction types.SyncDirection) report.Outcome {
	if direction == types.FromFilesystem {
		return r.push(entry)
	}
	return r.pull(entry)
}

// push encrypts the filesystem plaintext into source control, removes the
// plaintext and links the filesystem path to the ciphertext.
func (r *secretReconciler) push(entry types.TrackedEntry) report.Outcome {
	e := r.e
	state, dest, err := e.links.Status(entry.FilesystemPath, entry.SourceControlPath)
	if err != nil {
		return failed(entry, err)
	}

	switch state {
	case types.LinkCorrect:
		return converged(entry)

	case types.LinkRegularFile:
		if e.cipher == nil {
			return failed(entry, errors.Newf(errors.ErrKeyLoad,
				"no key material available to encrypt %q", entry.FilesystemPath))
		}
		plaintext, err := e.fs.ReadFile(entry.FilesystemPath)
		if err != nil {
			return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot read %q", entry.FilesystemPath))
		}
		ciphertext, err := e.cipher.Encrypt(plaintext)
		if err != nil {
			return failed(entry, err)
		}
		if err := e.writeAtomic(entry.SourceControlPath, ciphertext, 0600); err != nil {
			return failed(entry, err)
		}
		if err := e.fs.Remove(entry.FilesystemPath); err != nil {
			return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot remove plaintext %q", entry.FilesystemPath))
		}
		if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
			return failed(entry, err)
		}
		return converged(entry)

	case types.LinkMissing:
		if e.scExists(entry.SourceControlPath) {
			if err := e.links.Link(entry.SourceControlPath, entry.FilesystemPath); err != nil {
				return failed(entry, err)
			}
			return converged(entry)
		}
		return failed(entry, errors.Newf(errors.ErrIoFailure,
			"%q exists on neither side", entry.FilesystemPath))

	default: // LinkWrong
		return conflicted(entry, errors.Newf(errors.ErrSymlinkConflict,
			"%q is a link to %q, not %q", entry.FilesystemPath, dest, entry.SourceControlPath), "")
	}
}

// pull decrypts the source-control ciphertext back into a plaintext file
// at the filesystem path. An existing regular file with different content
// is a conflict, never an overwrite.
func (r *secretReconciler) pull(entry types.TrackedEntry) report.Outcome {
	e := r.e
	ciphertext, err := e.fs.ReadFile(entry.SourceControlPath)
	if err != nil {
		return failed(entry, errors.Wrapf(err, errors.ErrIoFailure,
			"no source-control copy at %q", entry.SourceControlPath))
	}
	if e.cipher == nil {
		return failed(entry, errors.Newf(errors.ErrDecryptionFailed,
			"secret key unavailable, cannot decrypt %q", entry.SourceControlPath))
	}
	plaintext, err := e.cipher.Decrypt(ciphertext)
	if err != nil {
		return failed(entry, err)
	}

	state, dest, err := e.links.Status(entry.FilesystemPath, entry.SourceControlPath)
	if err != nil {
		return failed(entry, err)
	}

	switch state {
	case types.LinkMissing:
		if err := e.writeAtomic(entry.FilesystemPath, plaintext, 0600); err != nil {
			return failed(entry, err)
		}
		return converged(entry)

	case types.LinkCorrect:
		// The filesystem path still links at the ciphertext from a push;
		// replace the link with the plaintext file
		if err := e.links.Unlink(entry.SourceControlPath, entry.FilesystemPath); err != nil {
			return failed(entry, err)
		}
		if err := e.writeAtomic(entry.FilesystemPath, plaintext, 0600); err != nil {
			return failed(entry, err)
		}
		return converged(entry)

	case types.LinkRegularFile:
		current, err := e.fs.ReadFile(entry.FilesystemPath)
		if err != nil {
			return failed(entry, errors.Wrapf(err, errors.ErrIoFailure, "cannot read %q", entry.FilesystemPath))
		}
		if bytes.Equal(current, plaintext) {
			return converged(entry)
		}
		return conflicted(entry, errors.Newf(errors.ErrSymlinkConflict,
			"%q differs from the decrypted source-control copy", entry.FilesystemPath), "")

	default: // LinkWrong
		return conflicted(entry, errors.Newf(errors.ErrSymlinkConflict,
			"%q is a link to %q, not %q", entry.FilesystemPath, dest, entry.SourceControlPath), "")
	}
}
