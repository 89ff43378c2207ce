// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"dotconf/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "already_tracked_error",
			code:    errors.ErrAlreadyTracked,
			message: "path already tracked",
			wantStr: "[ALREADY_TRACKED] path already tracked",
		},
		{
			name:    "symlink_conflict_error",
			code:    errors.ErrSymlinkConflict,
			message: "refusing to overwrite regular file",
			wantStr: "[SYMLINK_CONFLICT] refusing to overwrite regular file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("permission denied")
	err := errors.Wrap(inner, errors.ErrIoFailure, "failed to write register")

	assert.Equal(t, "[IO_FAILURE] failed to write register: permission denied", err.Error())
	assert.ErrorIs(t, err, inner)

	// Wrapping nil stays nil
	assert.Nil(t, errors.Wrap(nil, errors.ErrIoFailure, "ignored"))
}

func TestIs(t *testing.T) {
	err := errors.Newf(errors.ErrNotTracked, "path %q is not tracked", "/home/u/.vimrc")
	assert.True(t, stderrors.Is(err, errors.New(errors.ErrNotTracked, "any message")))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrAlreadyTracked, "any message")))
}

func TestIsErrorCode(t *testing.T) {
	err := errors.New(errors.ErrRegistryLocked, "registry is locked")
	wrapped := errors.Wrap(err, errors.ErrInternal, "command failed")

	assert.True(t, errors.IsErrorCode(err, errors.ErrRegistryLocked))
	// Outer code wins once wrapped
	assert.True(t, errors.IsErrorCode(wrapped, errors.ErrInternal))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrRegistryLocked))
}

func TestGetErrorCode(t *testing.T) {
	require.Equal(t, errors.ErrDecryptionFailed,
		errors.GetErrorCode(errors.New(errors.ErrDecryptionFailed, "bad key")))
	require.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrPathOutsideHome, "cannot track").
		WithDetail("path", "/etc/hosts")
	assert.Equal(t, "/etc/hosts", err.Details["path"])
}
