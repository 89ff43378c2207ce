package dotconf

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dotconf/pkg/config"
	"dotconf/pkg/crypto"
	"dotconf/pkg/errors"
	"dotconf/pkg/filesystem"
	"dotconf/pkg/git"
	"dotconf/pkg/registry"
	"dotconf/pkg/symlink"
	syncer "dotconf/pkg/sync"
	"dotconf/pkg/types"
)

// loadSettings resolves the configuration, honoring the --config flag.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf(MsgErrConfig, err)
	}
	return cfg, nil
}

// buildEngine assembles the sync engine from the resolved configuration.
// A configured key that fails to load degrades to a nil cipher so config
// entries still sync; the affected secret entries report the failure
// per-entry instead.
func buildEngine(cfg *config.Config) (*syncer.Engine, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot determine home directory")
	}

	fs := filesystem.NewOS()
	var cipher syncer.Cipher
	if cfg.HasSecretKey() {
		pgp, err := crypto.Load(fs, cfg.Keys(), promptPassphrase)
		if err != nil {
			log.Warn().Err(err).Str("key", cfg.SecretKey).Msg("secret key unavailable")
			fmt.Fprintln(os.Stderr, FormatError(fmt.Sprintf("warning: secret key unavailable: %v", err)))
		} else {
			cipher = pgp
		}
	}

	root := cfg.SourceControlFolder
	return syncer.New(syncer.Options{
		FS:     fs,
		Store:  registry.NewStore(fs, root, home),
		Links:  symlink.NewManager(fs),
		Cipher: cipher,
		Home:   home,
		Root:   root,
	}), nil
}

// promptPassphrase asks for the key passphrase on the controlling terminal.
func promptPassphrase() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New(errors.ErrKeyLoad, "key is passphrase protected but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrKeyLoad, "cannot read passphrase")
	}
	return pass, nil
}

func parseFileType(raw string) (types.Kind, error) {
	kind, err := types.ParseKind(raw)
	if err != nil {
		return "", fmt.Errorf(MsgErrBadFileType, raw)
	}
	return kind, nil
}

// parseDirection maps the CLI spelling to the engine's direction: the
// flag names the authoritative side.
func parseDirection(raw string) (types.SyncDirection, error) {
	switch raw {
	case "dotfiles":
		return types.FromFilesystem, nil
	case "filesystem":
		return types.FromDotfiles, nil
	default:
		return "", fmt.Errorf(MsgErrBadDirection, raw)
	}
}

func newTrackCmd() *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: MsgTrackShort,
	}
	trackCmd.AddCommand(newTrackAddCmd())
	trackCmd.AddCommand(newTrackRemoveCmd())
	return trackCmd
}

func newTrackAddCmd() *cobra.Command {
	var (
		fileType string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "add --file PATH",
		Short: MsgAddShort,
		Long:  MsgAddLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFileType(fileType)
			if err != nil {
				return err
			}
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			entry, err := engine.Track(kind, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgNowTracking, entry.FilesystemPath, kind)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fileType, "file-type", "t", "config", MsgFlagFileType)
	cmd.Flags().StringVarP(&file, "file", "f", "", MsgFlagFile)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTrackRemoveCmd() *cobra.Command {
	var (
		fileType string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "remove --file PATH",
		Short: MsgRemoveShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFileType(fileType)
			if err != nil {
				return err
			}
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			entry, err := engine.Untrack(kind, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgNoLongerTracks, entry.FilesystemPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fileType, "file-type", "t", "config", MsgFlagFileType)
	cmd.Flags().StringVarP(&file, "file", "f", "", MsgFlagFile)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSyncCmd() *cobra.Command {
	var (
		direction string
		commit    bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		Long:  MsgSyncLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			summary, err := engine.Sync(dir)
			if err != nil {
				return err
			}
			summary.Render(cmd.OutOrStdout())

			if commit || cfg.Git.AutoCommit {
				if err := commitSourceControl(cmd, cfg, summary.Ok()); err != nil {
					return err
				}
			}

			if !summary.Ok() {
				_, conflicted, failed := summary.Counts()
				return fmt.Errorf(MsgErrSyncFailed, conflicted+failed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgSyncClean)
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "sync-direction", "d", "dotfiles", MsgFlagDirection)
	cmd.Flags().BoolVar(&commit, "commit", false, MsgFlagCommit)
	return cmd
}

// commitSourceControl commits the source control folder after a clean
// sync. A dirty sync skips the commit rather than snapshotting a
// half-reconciled tree.
func commitSourceControl(cmd *cobra.Command, cfg *config.Config, clean bool) error {
	if !clean {
		log.Warn().Msg("sync did not fully converge, skipping commit")
		return nil
	}
	client := git.NewClient(cfg.SourceControlFolder)
	ctx := cmd.Context()
	if !client.IsRepo(ctx) {
		log.Warn().Str("dir", cfg.SourceControlFolder).Msg("not a git repository, skipping commit")
		return nil
	}
	return client.CommitAll(ctx, "dotconf sync")
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			configReg, secretReg, err := engine.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if configReg.Len()+secretReg.Len() == 0 {
				fmt.Fprintln(out, MsgNothingTracked)
				return nil
			}
			fmt.Fprintln(out, formatBold(MsgTrackedHeader))
			for _, entry := range configReg.Entries() {
				fmt.Fprintf(out, "  %s (%s)\n", entry.FilesystemPath, entry.Kind)
			}
			for _, entry := range secretReg.Entries() {
				fmt.Fprintf(out, "  %s (%s)\n", entry.FilesystemPath, entry.Kind)
			}
			return nil
		},
	}
}

func newCreateKeyCmd() *cobra.Command {
	var (
		name   string
		email  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "create-key",
		Short: MsgCreateKeyShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return errors.Wrap(err, errors.ErrInternal, "cannot determine home directory")
				}
				path = home + "/.dotconf-key.asc"
			}
			if err := crypto.GenerateKey(filesystem.NewOS(), name, email, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgKeyCreated, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", MsgFlagKeyName)
	cmd.Flags().StringVar(&email, "email", "", MsgFlagKeyEmail)
	cmd.Flags().StringVarP(&output, "output", "o", "", MsgFlagKeyOut)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: MsgGenConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GenerateConfigContent())
			return nil
		},
	}
}
