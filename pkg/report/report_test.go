package report

import (
	"strings"
	"testing"

	"dotconf/pkg/errors"
	"dotconf/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(path string, status types.EntryStatus, reason error) Outcome {
	return Outcome{
		Entry:  types.TrackedEntry{FilesystemPath: path, Kind: types.KindConfig},
		Status: status,
		Reason: reason,
	}
}

func TestSummaryCounts(t *testing.T) {
	s := NewSummary(types.FromFilesystem)
	s.Add(outcome("/home/u/.vimrc", types.StatusConverged, nil))
	s.Add(outcome("/home/u/.bashrc", types.StatusConverged, nil))
	s.Add(outcome("/home/u/.zshrc", types.StatusConflicted, errors.New(errors.ErrSymlinkConflict, "occupied")))
	s.Add(outcome("/home/u/.netrc", types.StatusFailed, errors.New(errors.ErrDecryptionFailed, "bad key")))

	converged, conflicted, failed := s.Counts()
	assert.Equal(t, 2, converged)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 1, failed)
	assert.False(t, s.Ok())
}

func TestSummaryOk(t *testing.T) {
	s := NewSummary(types.FromDotfiles)
	assert.True(t, s.Ok(), "empty pass converges trivially")

	s.Add(outcome("/home/u/.vimrc", types.StatusConverged, nil))
	assert.True(t, s.Ok())
}

func TestRenderNamesNonConvergedEntries(t *testing.T) {
	s := NewSummary(types.FromFilesystem)
	s.Add(outcome("/home/u/.vimrc", types.StatusConverged, nil))
	s.Add(outcome("/home/u/.zshrc", types.StatusConflicted, errors.New(errors.ErrSymlinkConflict, "occupied by a regular file")))

	var b strings.Builder
	s.Render(&b)
	out := b.String()

	assert.Contains(t, out, "1 converged, 1 conflicted, 0 failed")
	assert.Contains(t, out, "/home/u/.zshrc")
	assert.Contains(t, out, "SYMLINK_CONFLICT")
	// Converged entries are not itemized
	assert.NotContains(t, out, "/home/u/.vimrc")
}

func TestCodeOf(t *testing.T) {
	o := outcome("/home/u/.netrc", types.StatusFailed, errors.New(errors.ErrDecryptionFailed, "bad key"))
	require.Equal(t, errors.ErrDecryptionFailed, CodeOf(o))
	assert.Equal(t, errors.ErrorCode(""), CodeOf(outcome("/x", types.StatusConverged, nil)))
}

func TestDivergence(t *testing.T) {
	sc := []byte("alias ls='ls --color'\nexport EDITOR=vim\n")
	fs := []byte("alias ls='ls --color'\nexport EDITOR=nvim\n")

	diff := Divergence(fs, sc)
	assert.Contains(t, diff, "+")
	assert.Contains(t, diff, "-")
	assert.Contains(t, diff, "vim")

	t.Run("identical content yields empty diff", func(t *testing.T) {
		assert.Empty(t, Divergence(sc, sc))
	})

	t.Run("binary content yields no diff", func(t *testing.T) {
		assert.Empty(t, Divergence([]byte{0x00, 0x01}, sc))
	})

	t.Run("oversized content yields no diff", func(t *testing.T) {
		big := make([]byte, maxDiffInput+1)
		assert.Empty(t, Divergence(big, sc))
	})
}
