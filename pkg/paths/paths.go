// Package paths provides centralized path handling for dotconf: expansion
// of user-supplied paths (~, $VAR, ${VAR}), the filesystem-path /
// source-control-path pairing for tracked entries, and the well-known
// locations of the registry and configuration files.
package paths

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/adrg/xdg"

	"dotconf/pkg/errors"
	"dotconf/pkg/types"
)

// Well-known names inside the source-control root. These define dotconf's
// on-disk layout and are not user-configurable.
const (
	// CfgDirName is the directory holding the persisted registers
	CfgDirName = "cfg"

	// ConfigRegisterFile is the register of symlinked config files
	ConfigRegisterFile = "symlinks"

	// SecretRegisterFile is the register of encrypted secret files
	SecretRegisterFile = "secrets"

	// LockFileName guards a command's execution against concurrent runs
	LockFileName = ".lock"

	// SecretExt is appended to a secret's source-control path; ciphertext
	// is stored ASCII-armored
	SecretExt = ".asc"

	// DefaultSourceControlDir is used when no source_control_folder is
	// configured
	DefaultSourceControlDir = ".dotfiles"

	// AppDirName is the directory name used under XDG config/state roots
	AppDirName = "dotconf"

	// ConfigFileName is the user configuration file name
	ConfigFileName = "dotconf.toml"
)

// LookupFunc resolves an environment variable, reporting whether it is set.
type LookupFunc func(name string) (string, bool)

// Expand expands a leading ~ to home and $VAR / ${VAR} references through
// lookup, returning a cleaned path. A referenced variable that is unset
// yields an UNRESOLVED_VARIABLE error. The function is pure: both the home
// directory and the environment are injected.
func Expand(raw, home string, lookup LookupFunc) (string, error) {
	if raw == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}

	s := raw
	if s == "~" {
		s = home
	} else if strings.HasPrefix(s, "~/") {
		s = filepath.Join(home, s[2:])
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}

		// ${VAR} form
		if i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return "", errors.Newf(errors.ErrInvalidInput, "unterminated ${ in %q", raw)
			}
			name := s[i+2 : i+2+end]
			val, ok := lookup(name)
			if !ok {
				return "", errors.Newf(errors.ErrUnresolvedVariable, "variable %q referenced by %q is not set", name, raw)
			}
			b.WriteString(val)
			i += 2 + end + 1
			continue
		}

		// $VAR form
		j := i + 1
		for j < len(s) && isVarRune(rune(s[j])) {
			j++
		}
		if j == i+1 {
			// lone dollar, keep it
			b.WriteByte('$')
			i++
			continue
		}
		name := s[i+1 : j]
		val, ok := lookup(name)
		if !ok {
			return "", errors.Newf(errors.ErrUnresolvedVariable, "variable %q referenced by %q is not set", name, raw)
		}
		b.WriteString(val)
		i = j
	}

	return filepath.Clean(b.String()), nil
}

func isVarRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ExpandEnv expands raw against the real environment and home directory,
// and makes the result absolute relative to the working directory.
func ExpandEnv(raw string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrIoFailure, "cannot determine home directory")
	}
	expanded, err := Expand(raw, home, os.LookupEnv)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrIoFailure, "cannot resolve %q", raw)
		}
		expanded = abs
	}
	return expanded, nil
}

// Pair computes the source-control counterpart of an absolute filesystem
// path: the home prefix is stripped and the remainder re-rooted under root.
// Secret entries additionally get the armored-ciphertext extension. Paths
// outside the home tree are unsupported.
func Pair(abs, home, root string, kind types.Kind) (string, error) {
	rel, err := filepath.Rel(home, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == "." {
		return "", errors.Newf(errors.ErrPathOutsideHome, "%q is not under the home directory %q", abs, home)
	}
	scPath := filepath.Join(root, rel)
	if kind == types.KindSecret {
		scPath += SecretExt
	}
	return scPath, nil
}

// RegisterPath returns the persisted register file for a kind, under
// <root>/cfg.
func RegisterPath(root string, kind types.Kind) string {
	name := ConfigRegisterFile
	if kind == types.KindSecret {
		name = SecretRegisterFile
	}
	return filepath.Join(root, CfgDirName, name)
}

// LockPath returns the command lock file location for a source-control root.
func LockPath(root string) string {
	return filepath.Join(root, CfgDirName, LockFileName)
}

// DefaultSourceControlRoot returns ~/.dotfiles for the given home.
func DefaultSourceControlRoot(home string) string {
	return filepath.Join(home, DefaultSourceControlDir)
}

// UserConfigFile returns the first existing user configuration file, in
// order: $XDG_CONFIG_HOME/dotconf/dotconf.toml, then ~/.dotconf.toml.
// ok is false when neither exists.
func UserConfigFile() (path string, ok bool) {
	if p, err := xdg.SearchConfigFile(filepath.Join(AppDirName, ConfigFileName)); err == nil {
		return p, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	p := filepath.Join(home, "."+ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return "", false
}

// DefaultConfigFilePath returns where genconfig should write the user
// configuration, creating parent directories as needed.
func DefaultConfigFilePath() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppDirName, ConfigFileName))
}
