package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  Kind
		expectErr bool
	}{
		{name: "config", input: "config", expected: KindConfig},
		{name: "secret", input: "secret", expected: KindSecret},
		{name: "unknown", input: "secrets", expectErr: true},
		{name: "empty", input: "", expectErr: true},
		{name: "case sensitive", input: "Config", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ParseKind(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestLinkStateString(t *testing.T) {
	assert.Equal(t, "missing", LinkMissing.String())
	assert.Equal(t, "correct-link", LinkCorrect.String())
	assert.Equal(t, "wrong-link", LinkWrong.String())
	assert.Equal(t, "regular-file", LinkRegularFile.String())
}
