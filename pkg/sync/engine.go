// Package sync implements the bidirectional reconciliation engine. It
// orchestrates the registry, path resolver, symlink manager and crypto
// adapter to converge filesystem and source-control state, isolating
// per-entry failures so one bad entry never blocks the rest of a pass.
package sync

import (
	"os"
	"path/filepath"

	"dotconf/pkg/errors"
	"dotconf/pkg/logging"
	"dotconf/pkg/paths"
	"dotconf/pkg/registry"
	"dotconf/pkg/report"
	"dotconf/pkg/symlink"
	"dotconf/pkg/types"
)

// Cipher is the engine's view of the crypto adapter. It may be absent
// (nil) when no key material could be loaded; secret entries then fail
// individually instead of aborting the pass.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Options wires an Engine. Home and Root must be absolute; Env is the
// variable lookup used for path expansion.
type Options struct {
	FS     types.FS
	Store  *registry.Store
	Links  *symlink.Manager
	Cipher Cipher
	Home   string
	Root   string
	Env    paths.LookupFunc
}

// Engine performs track/untrack/sync operations for one source-control
// root. It is single-command: the registry lock is held for the duration
// of each exported method.
type Engine struct {
	fs     types.FS
	store  *registry.Store
	links  *symlink.Manager
	cipher Cipher
	home   string
	root   string
	env    paths.LookupFunc
}

// New creates an Engine from Options
func New(opts Options) *Engine {
	env := opts.Env
	if env == nil {
		env = os.LookupEnv
	}
	return &Engine{
		fs:     opts.FS,
		store:  opts.Store,
		links:  opts.Links,
		cipher: opts.Cipher,
		home:   opts.Home,
		root:   opts.Root,
		env:    env,
	}
}

// Track registers a path under the given kind. This is bookkeeping only:
// no bytes move until the next sync. The register is persisted atomically
// on success and left untouched on failure.
func (e *Engine) Track(kind types.Kind, rawPath string) (types.TrackedEntry, error) {
	var zero types.TrackedEntry

	entry, err := e.resolve(kind, rawPath)
	if err != nil {
		return zero, err
	}
	if err := e.store.Lock(); err != nil {
		return zero, err
	}
	defer func() { _ = e.store.Unlock() }()

	reg, other, err := e.loadPair(kind)
	if err != nil {
		return zero, err
	}
	if err := reg.Add(entry, other); err != nil {
		return zero, err
	}
	if err := e.store.Save(reg); err != nil {
		return zero, err
	}

	logger := logging.GetLogger("sync.engine")
	logger.Info().
		Str("path", entry.FilesystemPath).
		Str("kind", string(kind)).
		Msg("path tracked")
	return entry, nil
}

// Untrack removes a path from the given kind's register. Existing symlinks
// and files are deliberately left untouched; detaching them requires an
// explicit sync so a bookkeeping command never has destructive side
// effects.
func (e *Engine) Untrack(kind types.Kind, rawPath string) (types.TrackedEntry, error) {
	var zero types.TrackedEntry

	entry, err := e.resolve(kind, rawPath)
	if err != nil {
		return zero, err
	}
	if err := e.store.Lock(); err != nil {
		return zero, err
	}
	defer func() { _ = e.store.Unlock() }()

	reg, _, err := e.loadPair(kind)
	if err != nil {
		return zero, err
	}
	if err := reg.Remove(entry.FilesystemPath); err != nil {
		return zero, err
	}
	if err := e.store.Save(reg); err != nil {
		return zero, err
	}

	logger := logging.GetLogger("sync.engine")
	logger.Info().
		Str("path", entry.FilesystemPath).
		Str("kind", string(kind)).
		Msg("path untracked")
	return entry, nil
}

// List returns both registers as currently persisted.
func (e *Engine) List() (config, secret *registry.Register, err error) {
	config, err = e.store.Load(types.KindConfig)
	if err != nil {
		return nil, nil, err
	}
	secret, err = e.store.Load(types.KindSecret)
	if err != nil {
		return nil, nil, err
	}
	return config, secret, nil
}

// Sync reconciles every tracked entry in the given direction and reports
// per-entry outcomes. Entry failures are recovered locally; only registry
// load and lock errors are fatal.
func (e *Engine) Sync(direction types.SyncDirection) (*report.Summary, error) {
	logger := logging.GetLogger("sync.engine")

	if err := e.store.Lock(); err != nil {
		return nil, err
	}
	defer func() { _ = e.store.Unlock() }()

	config, secret, err := e.List()
	if err != nil {
		return nil, err
	}

	summary := report.NewSummary(direction)
	for _, reg := range []*registry.Register{config, secret} {
		rec := e.reconcilerFor(reg.Kind)
		for _, entry := range reg.Entries() {
			outcome := rec.reconcile(entry, direction)
			logger.Debug().
				Str("path", entry.FilesystemPath).
				Str("kind", string(entry.Kind)).
				Str("status", string(outcome.Status)).
				Msg("entry reconciled")
			summary.Add(outcome)
		}
	}

	converged, conflicted, failed := summary.Counts()
	logger.Info().
		Str("direction", string(direction)).
		Int("converged", converged).
		Int("conflicted", conflicted).
		Int("failed", failed).
		Msg("sync pass complete")
	return summary, nil
}

// reconciler converges one entry in one direction. The two implementations
// form a closed set dispatched by entry kind.
type reconciler interface {
	reconcile(entry types.TrackedEntry, direction types.SyncDirection) report.Outcome
}

func (e *Engine) reconcilerFor(kind types.Kind) reconciler {
	if kind == types.KindSecret {
		return &secretReconciler{e}
	}
	return &configReconciler{e}
}

func (e *Engine) resolve(kind types.Kind, rawPath string) (types.TrackedEntry, error) {
	var zero types.TrackedEntry
	abs, err := paths.Expand(rawPath, e.home, e.env)
	if err != nil {
		return zero, err
	}
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.home, abs)
	}
	scPath, err := paths.Pair(abs, e.home, e.root, kind)
	if err != nil {
		return zero, err
	}
	return types.TrackedEntry{FilesystemPath: abs, SourceControlPath: scPath, Kind: kind}, nil
}

func (e *Engine) loadPair(kind types.Kind) (reg, other *registry.Register, err error) {
	config, secret, err := e.List()
	if err != nil {
		return nil, nil, err
	}
	if kind == types.KindSecret {
		return secret, config, nil
	}
	return config, secret, nil
}

// writeAtomic writes data via a temp file and rename so an interrupted run
// never leaves a torn file.
func (e *Engine) writeAtomic(path string, data []byte, perm os.FileMode) error {
	if err := e.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot create parent of %q", path)
	}
	tmp := path + ".tmp"
	if err := e.fs.WriteFile(tmp, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot write %q", tmp)
	}
	if err := e.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "cannot replace %q", path)
	}
	return nil
}

func (e *Engine) scExists(path string) bool {
	_, err := e.fs.Lstat(path)
	return err == nil
}

func converged(entry types.TrackedEntry) report.Outcome {
	return report.Outcome{Entry: entry, Status: types.StatusConverged}
}

func conflicted(entry types.TrackedEntry, reason error, detail string) report.Outcome {
	return report.Outcome{Entry: entry, Status: types.StatusConflicted, Reason: reason, Detail: detail}
}

func failed(entry types.TrackedEntry, reason error) report.Outcome {
	return report.Outcome{Entry: entry, Status: types.StatusFailed, Reason: reason}
}
