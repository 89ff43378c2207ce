package dotconf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCmd()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// setupHome points HOME (and the implicit ~/.dotfiles root) at a temp dir.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".dotfiles"), 0755))
	return home
}

func TestNoCommandShowsHelp(t *testing.T) {
	_, err := runCommand(t)
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dotconf version")
}

func TestGenConfigCmd(t *testing.T) {
	out, err := runCommand(t, "genconfig")
	require.NoError(t, err)
	assert.Contains(t, out, "# source_control_folder")
	assert.Contains(t, out, "[git]")
}

func TestTrackAddAndList(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vimrc"), []byte("set nu\n"), 0644))

	out, err := runCommand(t, "track", "add", "--file-type", "config", "--file", "~/.vimrc")
	require.NoError(t, err)
	assert.Contains(t, out, "Now tracking")

	out, err = runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, ".vimrc"))

	// Second add of the same path fails
	_, err = runCommand(t, "track", "add", "--file-type", "config", "--file", "~/.vimrc")
	assert.Error(t, err)
}

func TestTrackAddRejectsBadFileType(t *testing.T) {
	setupHome(t)
	_, err := runCommand(t, "track", "add", "--file-type", "bogus", "--file", "~/.vimrc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file-type")
}

func TestTrackRemove(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vimrc"), []byte("set nu\n"), 0644))

	_, err := runCommand(t, "track", "add", "--file", "~/.vimrc")
	require.NoError(t, err)

	out, err := runCommand(t, "track", "remove", "--file", "~/.vimrc")
	require.NoError(t, err)
	assert.Contains(t, out, "No longer tracking")

	out, err = runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing is tracked")
}

func TestSyncRoundTrip(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vimrc"), []byte("set nu\n"), 0644))

	_, err := runCommand(t, "track", "add", "--file", "~/.vimrc")
	require.NoError(t, err)

	out, err := runCommand(t, "sync", "--sync-direction", "dotfiles")
	require.NoError(t, err)
	assert.Contains(t, out, "converged")
	assert.Contains(t, out, MsgSyncClean)

	// The file moved into source control and a symlink points back
	moved, err := os.ReadFile(filepath.Join(home, ".dotfiles", ".vimrc"))
	require.NoError(t, err)
	assert.Equal(t, "set nu\n", string(moved))

	info, err := os.Lstat(filepath.Join(home, ".vimrc"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	// Restore direction is a no-op once converged
	_, err = runCommand(t, "sync", "--sync-direction", "filesystem")
	require.NoError(t, err)
}

func TestSyncRejectsBadDirection(t *testing.T) {
	setupHome(t)
	_, err := runCommand(t, "sync", "--sync-direction", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync-direction")
}

func TestSyncReportsConflictsInExitStatus(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vimrc"), []byte("set nu\n"), 0644))
	_, err := runCommand(t, "track", "add", "--file", "~/.vimrc")
	require.NoError(t, err)
	_, err = runCommand(t, "sync")
	require.NoError(t, err)

	// Recreate the path as an independent file so the next sync conflicts
	require.NoError(t, os.Remove(filepath.Join(home, ".vimrc")))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".vimrc"), []byte("set nonu\n"), 0644))

	out, err := runCommand(t, "sync")
	require.Error(t, err)
	assert.Contains(t, out, "conflicted")
}

func TestCreateKeyCmd(t *testing.T) {
	home := setupHome(t)
	keyPath := filepath.Join(home, "key.asc")

	out, err := runCommand(t, "create-key", "--name", "Test", "--email", "test@example.com", "-o", keyPath)
	require.NoError(t, err)
	assert.Contains(t, out, keyPath)

	data, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PGP PRIVATE KEY BLOCK")

	// Refuses to overwrite
	_, err = runCommand(t, "create-key", "--name", "Test", "--email", "test@example.com", "-o", keyPath)
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"dotfiles", false},
		{"filesystem", false},
		{"", true},
		{"both", true},
	}
	for _, tt := range tests {
		_, err := parseDirection(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
		} else {
			assert.NoError(t, err, tt.raw)
		}
	}
}
