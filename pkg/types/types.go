package types

import "fmt"

// Kind classifies a tracked entry. Config entries are mirrored into source
// control as plain files and symlinked back; Secret entries are stored as
// PGP ciphertext.
type Kind string

const (
	KindConfig Kind = "config"
	KindSecret Kind = "secret"
)

// ParseKind converts a user-supplied file-type string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindConfig:
		return KindConfig, nil
	case KindSecret:
		return KindSecret, nil
	default:
		return "", fmt.Errorf("unknown file type %q (expected %q or %q)", s, KindConfig, KindSecret)
	}
}

// SyncDirection selects which side of an entry is authoritative for a
// reconciliation pass. It is an argument to each sync invocation and is
// never persisted.
type SyncDirection string

const (
	// FromFilesystem treats the filesystem copy as authoritative: bytes are
	// moved (or encrypted) into source control and the filesystem path
	// becomes a symlink. The CLI spells this "--sync-direction dotfiles"
	// (toward the dotfiles directory).
	FromFilesystem SyncDirection = "from-filesystem"

	// FromDotfiles treats the source-control copy as authoritative: symlinks
	// are created (or secrets decrypted) out of source control. The CLI
	// spells this "--sync-direction filesystem".
	FromDotfiles SyncDirection = "from-dotfiles"
)

// TrackedEntry is one file under dotconf management. Both paths are
// absolute and fully expanded; SourceControlPath is derived from
// FilesystemPath and the source-control root.
type TrackedEntry struct {
	FilesystemPath    string
	SourceControlPath string
	Kind              Kind
}

// EntryStatus is the terminal state of one entry after a sync pass.
type EntryStatus string

const (
	StatusUnresolved EntryStatus = "unresolved"
	StatusConverged  EntryStatus = "converged"
	StatusConflicted EntryStatus = "conflicted"
	StatusFailed     EntryStatus = "failed"
)

// LinkState classifies what currently sits at a filesystem path relative to
// an expected symlink target.
type LinkState int

const (
	// LinkMissing means nothing exists at the path.
	LinkMissing LinkState = iota
	// LinkCorrect means the path is a symlink pointing at the expected target.
	LinkCorrect
	// LinkWrong means the path is a symlink pointing somewhere else.
	LinkWrong
	// LinkRegularFile means the path is occupied by a real file or directory.
	LinkRegularFile
)

func (s LinkState) String() string {
	switch s {
	case LinkMissing:
		return "missing"
	case LinkCorrect:
		return "correct-link"
	case LinkWrong:
		return "wrong-link"
	case LinkRegularFile:
		return "regular-file"
	default:
		return "unknown"
	}
}

// KeyConfig is the key material reference handed to the crypto adapter.
// dotconf only ever holds paths to keys, never key bytes of its own.
type KeyConfig struct {
	// SecretKeyPath is the armored PGP private key used for decryption (and
	// as the encryption recipient when RecipientKeyPath is unset).
	SecretKeyPath string

	// RecipientKeyPath optionally names an armored public key to encrypt to.
	RecipientKeyPath string
}
