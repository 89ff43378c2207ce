package symlink

import (
	"testing"

	"dotconf/pkg/errors"
	"dotconf/pkg/testutil"
	"dotconf/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *testutil.MemoryFS) {
	t.Helper()
	fs := testutil.NewMemoryFS()
	require.NoError(t, fs.MkdirAll("/home/u/.dotfiles", 0755))
	return NewManager(fs), fs
}

func TestStatus(t *testing.T) {
	m, fs := newTestManager(t)
	source := "/home/u/.dotfiles/.vimrc"
	require.NoError(t, fs.WriteFile(source, []byte("set nu"), 0644))

	t.Run("missing", func(t *testing.T) {
		state, _, err := m.Status("/home/u/.vimrc", source)
		require.NoError(t, err)
		assert.Equal(t, types.LinkMissing, state)
	})

	t.Run("regular file", func(t *testing.T) {
		require.NoError(t, fs.WriteFile("/home/u/.bashrc", []byte("x"), 0644))
		state, _, err := m.Status("/home/u/.bashrc", source)
		require.NoError(t, err)
		assert.Equal(t, types.LinkRegularFile, state)
	})

	t.Run("correct link", func(t *testing.T) {
		require.NoError(t, fs.Symlink(source, "/home/u/.vimrc"))
		state, dest, err := m.Status("/home/u/.vimrc", source)
		require.NoError(t, err)
		assert.Equal(t, types.LinkCorrect, state)
		assert.Equal(t, source, dest)
	})

	t.Run("wrong link", func(t *testing.T) {
		require.NoError(t, fs.Symlink("/somewhere/else", "/home/u/.zshrc"))
		state, dest, err := m.Status("/home/u/.zshrc", source)
		require.NoError(t, err)
		assert.Equal(t, types.LinkWrong, state)
		assert.Equal(t, "/somewhere/else", dest)
	})
}

func TestLink(t *testing.T) {
	m, fs := newTestManager(t)
	source := "/home/u/.dotfiles/.vimrc"
	target := "/home/u/.vimrc"
	require.NoError(t, fs.WriteFile(source, []byte("set nu"), 0644))

	require.NoError(t, m.Link(source, target))
	isLink, dest := fs.IsLink(target)
	assert.True(t, isLink)
	assert.Equal(t, source, dest)

	// Idempotent on a correct link
	require.NoError(t, m.Link(source, target))
}

func TestLinkCreatesParents(t *testing.T) {
	m, fs := newTestManager(t)
	source := "/home/u/.dotfiles/.config/nvim/init.lua"
	target := "/home/u/.config/nvim/init.lua"
	require.NoError(t, fs.MkdirAll("/home/u/.dotfiles/.config/nvim", 0755))
	require.NoError(t, fs.WriteFile(source, []byte("-- init"), 0644))

	require.NoError(t, m.Link(source, target))
	isLink, _ := fs.IsLink(target)
	assert.True(t, isLink)
}

func TestLinkConflicts(t *testing.T) {
	m, fs := newTestManager(t)
	source := "/home/u/.dotfiles/.vimrc"
	require.NoError(t, fs.WriteFile(source, []byte("set nu"), 0644))

	t.Run("regular file is never overwritten", func(t *testing.T) {
		require.NoError(t, fs.WriteFile("/home/u/.vimrc", []byte("my own edits"), 0644))
		err := m.Link(source, "/home/u/.vimrc")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkConflict))

		// The file is untouched
		data, readErr := fs.ReadFile("/home/u/.vimrc")
		require.NoError(t, readErr)
		assert.Equal(t, []byte("my own edits"), data)
	})

	t.Run("foreign link is never replaced", func(t *testing.T) {
		require.NoError(t, fs.Symlink("/somewhere/else", "/home/u/.zshrc"))
		err := m.Link(source, "/home/u/.zshrc")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkConflict))
	})
}

func TestUnlink(t *testing.T) {
	m, fs := newTestManager(t)
	source := "/home/u/.dotfiles/.vimrc"
	target := "/home/u/.vimrc"
	require.NoError(t, fs.WriteFile(source, []byte("set nu"), 0644))
	require.NoError(t, fs.Symlink(source, target))

	require.NoError(t, m.Unlink(source, target))
	assert.False(t, fs.Exists(target))

	// Second removal conflicts (nothing correct to remove)
	err := m.Unlink(source, target)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkConflict))
}

func TestUnlinkRefusesRegularFile(t *testing.T) {
	m, fs := newTestManager(t)
	require.NoError(t, fs.WriteFile("/home/u/.vimrc", []byte("data"), 0644))

	err := m.Unlink("/home/u/.dotfiles/.vimrc", "/home/u/.vimrc")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSymlinkConflict))
	assert.True(t, fs.Exists("/home/u/.vimrc"))
}
