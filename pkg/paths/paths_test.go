package paths

import (
	"testing"

	"dotconf/pkg/errors"
	"dotconf/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestExpand(t *testing.T) {
	home := "/home/u"
	env := testEnv(map[string]string{
		"HOME":   "/home/u",
		"XDG":    "/home/u/.config",
		"EMPTY":  "",
		"MY_DIR": "/data",
	})

	tests := []struct {
		name     string
		raw      string
		expected string
		wantCode errors.ErrorCode
	}{
		{name: "bare tilde", raw: "~", expected: "/home/u"},
		{name: "tilde prefix", raw: "~/.vimrc", expected: "/home/u/.vimrc"},
		{name: "plain absolute", raw: "/etc/hosts", expected: "/etc/hosts"},
		{name: "simple variable", raw: "$HOME/.vimrc", expected: "/home/u/.vimrc"},
		{name: "braced variable", raw: "${XDG}/nvim/init.lua", expected: "/home/u/.config/nvim/init.lua"},
		{name: "variable set to empty", raw: "$EMPTY/x", expected: "/x"},
		{name: "underscored variable", raw: "$MY_DIR/f", expected: "/data/f"},
		{name: "lone dollar survives", raw: "/tmp/a$", expected: "/tmp/a$"},
		{name: "unset variable", raw: "$NOPE/.vimrc", wantCode: errors.ErrUnresolvedVariable},
		{name: "unset braced variable", raw: "${NOPE}/.vimrc", wantCode: errors.ErrUnresolvedVariable},
		{name: "unterminated brace", raw: "${HOME/.vimrc", wantCode: errors.ErrInvalidInput},
		{name: "empty input", raw: "", wantCode: errors.ErrInvalidInput},
		{name: "cleans duplicate separators", raw: "/home//u/./x", expected: "/home/u/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.raw, home, env)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPair(t *testing.T) {
	home := "/home/u"
	root := "/home/u/.dotfiles"

	tests := []struct {
		name     string
		abs      string
		kind     types.Kind
		expected string
		wantCode errors.ErrorCode
	}{
		{
			name:     "config in home root",
			abs:      "/home/u/.vimrc",
			kind:     types.KindConfig,
			expected: "/home/u/.dotfiles/.vimrc",
		},
		{
			name:     "nested config",
			abs:      "/home/u/.config/nvim/init.lua",
			kind:     types.KindConfig,
			expected: "/home/u/.dotfiles/.config/nvim/init.lua",
		},
		{
			name:     "secret gets armored extension",
			abs:      "/home/u/.ssh/config",
			kind:     types.KindSecret,
			expected: "/home/u/.dotfiles/.ssh/config.asc",
		},
		{
			name:     "outside home",
			abs:      "/etc/hosts",
			kind:     types.KindConfig,
			wantCode: errors.ErrPathOutsideHome,
		},
		{
			name:     "home itself",
			abs:      "/home/u",
			kind:     types.KindConfig,
			wantCode: errors.ErrPathOutsideHome,
		},
		{
			name:     "sibling user",
			abs:      "/home/v/.vimrc",
			kind:     types.KindConfig,
			wantCode: errors.ErrPathOutsideHome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pair(tt.abs, home, root, tt.kind)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegisterPath(t *testing.T) {
	assert.Equal(t, "/d/cfg/symlinks", RegisterPath("/d", types.KindConfig))
	assert.Equal(t, "/d/cfg/secrets", RegisterPath("/d", types.KindSecret))
	assert.Equal(t, "/d/cfg/.lock", LockPath("/d"))
}

func TestDefaultSourceControlRoot(t *testing.T) {
	assert.Equal(t, "/home/u/.dotfiles", DefaultSourceControlRoot("/home/u"))
}
