package dotconf

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort      = "Track, encrypt and synchronize your dotfiles"
	MsgTrackShort     = "Manage the set of tracked files"
	MsgAddShort       = "Start tracking a file"
	MsgRemoveShort    = "Stop tracking a file"
	MsgSyncShort      = "Reconcile tracked files with the source control folder"
	MsgListShort      = "List all tracked files"
	MsgCreateKeyShort = "Generate a new PGP key pair for secrets"
	MsgGenConfigShort = "Print a starter configuration file"
	MsgVersionShort   = "Print version information"

	// Long descriptions
	MsgRootLong = `dotconf keeps your configuration files in a single source control folder
and symlinks them back into place, so git can handle versioning and
history. Files marked as secrets are stored PGP-encrypted instead of
being linked.`
	MsgSyncLong = `Sync walks every tracked file and brings the filesystem and the source
control folder into agreement.

With --sync-direction dotfiles (the default), local files are moved into
the source control folder and replaced with symlinks; secrets are
encrypted on the way in. With --sync-direction filesystem, the source
control folder is authoritative: missing links are created and secrets
are decrypted back to their filesystem locations.

Files that diverged on both sides are reported as conflicts and left
untouched.`
	MsgAddLong = `Add records a file in the registry. Nothing moves until the next sync.

The path may use ~ and environment variables; it must resolve to a
location inside your home directory.`

	// Status messages
	MsgNothingTracked = "Nothing is tracked yet."
	MsgTrackedHeader  = "Tracked files:"
	MsgNowTracking    = "Now tracking %s (%s). Run 'dotconf sync' to apply.\n"
	MsgNoLongerTracks = "No longer tracking %s. Existing links and copies were left in place.\n"
	MsgKeyCreated     = "Key pair written to %s.\nSet secret_key in your config to start using it.\n"
	MsgSyncClean      = "Everything converged."

	// Error messages
	MsgErrConfig       = "failed to load configuration: %w"
	MsgErrSyncFailed   = "%d file(s) could not be synchronized"
	MsgErrBadDirection = "invalid --sync-direction %q (want dotfiles or filesystem)"
	MsgErrBadFileType  = "invalid --file-type %q (want config or secret)"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig    = "Path to the configuration file"
	MsgFlagFileType  = "Kind of file: config (symlinked) or secret (encrypted)"
	MsgFlagFile      = "Path of the file, ~ and environment variables allowed"
	MsgFlagDirection = "Authoritative side: dotfiles (push local files in) or filesystem (restore from source control)"
	MsgFlagCommit    = "Commit the source control folder after a clean sync"
	MsgFlagKeyName   = "Name recorded on the generated key"
	MsgFlagKeyEmail  = "Email recorded on the generated key"
	MsgFlagKeyOut    = "Where to write the armored key pair"
)
