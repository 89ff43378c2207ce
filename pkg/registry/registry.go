// Package registry implements the persisted registers of tracked files.
// One register exists per entry kind; the on-disk form is a plain ordered
// list of absolute filesystem paths, one per line, under <root>/cfg.
package registry

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"dotconf/pkg/errors"
	"dotconf/pkg/logging"
	"dotconf/pkg/paths"
	"dotconf/pkg/types"
)

// Register is the in-memory form of one kind's tracked entries. Order is
// insertion order; filesystem paths are unique keys.
type Register struct {
	Kind    types.Kind
	entries []types.TrackedEntry
	index   map[string]int
}

// NewRegister creates an empty register for a kind
func NewRegister(kind types.Kind) *Register {
	return &Register{
		Kind:  kind,
		index: make(map[string]int),
	}
}

// Entries returns the tracked entries in insertion order. The returned
// slice must not be mutated.
func (r *Register) Entries() []types.TrackedEntry {
	return r.entries
}

// Len returns the number of tracked entries
func (r *Register) Len() int {
	return len(r.entries)
}

// Contains reports whether a filesystem path is tracked in this register
func (r *Register) Contains(filesystemPath string) bool {
	_, ok := r.index[filesystemPath]
	return ok
}

// Add inserts an entry, enforcing that its filesystem path is tracked in
// neither this register nor other. An entry cannot be both Config and
// Secret.
func (r *Register) Add(entry types.TrackedEntry, other *Register) error {
	if r.Contains(entry.FilesystemPath) || (other != nil && other.Contains(entry.FilesystemPath)) {
		return errors.Newf(errors.ErrAlreadyTracked, "%q is already tracked", entry.FilesystemPath).
			WithDetail("path", entry.FilesystemPath)
	}
	r.index[entry.FilesystemPath] = len(r.entries)
	r.entries = append(r.entries, entry)
	return nil
}

// Remove deletes the entry for a filesystem path, preserving the order of
// the remaining entries.
func (r *Register) Remove(filesystemPath string) error {
	i, ok := r.index[filesystemPath]
	if !ok {
		return errors.Newf(errors.ErrNotTracked, "%q is not tracked", filesystemPath).
			WithDetail("path", filesystemPath)
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, filesystemPath)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].FilesystemPath] = j
	}
	return nil
}

// Store loads and persists registers for one source-control root.
type Store struct {
	fs   types.FS
	root string
	home string
}

// NewStore creates a store for the given source-control root and home
// directory. The home directory is needed to re-derive source-control
// paths when loading.
func NewStore(filesystem types.FS, root, home string) *Store {
	return &Store{fs: filesystem, root: root, home: home}
}

// Load reads the persisted register for a kind. A missing file yields an
// empty register; an unparseable one fails with REGISTRY_CORRUPT.
func (s *Store) Load(kind types.Kind) (*Register, error) {
	logger := logging.GetLogger("registry")
	path := paths.RegisterPath(s.root, kind)
	reg := NewRegister(kind)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("register file absent, starting empty")
			return reg, nil
		}
		return nil, errors.Wrapf(err, errors.ErrIoFailure, "cannot read register %q", path)
	}

	if !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return nil, errors.Newf(errors.ErrRegistryCorrupt, "register %q contains invalid bytes", path)
	}

	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			return nil, errors.Newf(errors.ErrRegistryCorrupt,
				"register %q line %d: %q is not an absolute path", path, n+1, line)
		}
		scPath, err := paths.Pair(line, s.home, s.root, kind)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrRegistryCorrupt,
				"register %q line %d: %q has no source-control counterpart", path, n+1, line)
		}
		entry := types.TrackedEntry{
			FilesystemPath:    line,
			SourceControlPath: scPath,
			Kind:              kind,
		}
		if err := reg.Add(entry, nil); err != nil {
			return nil, errors.Wrapf(err, errors.ErrRegistryCorrupt,
				"register %q line %d: duplicate path %q", path, n+1, line)
		}
	}

	logger.Debug().Str("path", path).Int("entries", reg.Len()).Msg("register loaded")
	return reg, nil
}

// Save persists a register atomically: the new content is written to a
// temporary file in the same directory and renamed into place, so a crash
// never leaves a half-written register.
func (s *Store) Save(reg *Register) error {
	path := paths.RegisterPath(s.root, reg.Kind)
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create %q", dir)
	}

	var b strings.Builder
	for _, e := range reg.entries {
		b.WriteString(e.FilesystemPath)
		b.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot write register %q", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot replace register %q", path)
	}

	logger := logging.GetLogger("registry")
	logger.Debug().
		Str("path", path).
		Int("entries", reg.Len()).
		Msg("register saved")
	return nil
}

// Lock guards the registry against a second dotconf process racing on the
// same source-control root. It fails fast with REGISTRY_LOCKED when the
// lock is already held.
func (s *Store) Lock() error {
	dir := filepath.Join(s.root, paths.CfgDirName)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create %q", dir)
	}
	lock := paths.LockPath(s.root)
	err := s.fs.CreateExclusive(lock, []byte(strconv.Itoa(os.Getpid())+"\n"))
	if err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrRegistryLocked,
				"another dotconf command is running (lock file %q exists)", lock)
		}
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create lock file %q", lock)
	}
	return nil
}

// Unlock releases the command lock. A missing lock file is tolerated so an
// Unlock after a failed Lock is harmless.
func (s *Store) Unlock() error {
	lock := paths.LockPath(s.root)
	if err := s.fs.Remove(lock); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot remove lock file %q", lock)
	}
	return nil
}
