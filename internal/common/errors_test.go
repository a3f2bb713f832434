package common

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			require.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}

	assert.NoError(t, WrapError(nil, "nothing to wrap"))
	assert.NoError(t, WrapErrorf(nil, "nothing to wrap %d", 1))
}

func TestTaxonomyMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"io error", NewIOError("read", "/tmp/x", fs.ErrPermission), ErrIO},
		{"io error keeps cause", NewIOError("read", "/tmp/x", fs.ErrPermission), fs.ErrPermission},
		{"parse error", NewParseError("profile", errors.New("unexpected end")), ErrParse},
		{"profile not found", NewProfileError("work", ErrProfileNotFound, nil), ErrProfileNotFound},
		{"profile exists", NewProfileError("work", ErrProfileAlreadyExists, nil), ErrProfileAlreadyExists},
		{"switch failed keeps io cause", NewProfileError("work", ErrSwitchFailed, NewIOError("rename", "/x", fs.ErrPermission)), ErrIO},
		{"scan budget", &ScanBudgetError{Path: "/x", Errors: 3}, ErrScanErrorBudgetExceeded},
		{"validation", NewValidationError("field", 1, "bad"), ErrValidation},
		{"configuration", NewConfigurationError("monitor", "interval", "must be positive"), ErrInvalidConfiguration},
		{"wrapped busy", WrapError(ErrBusy, "list profiles"), ErrBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}
}

func TestProfileErrorMessage(t *testing.T) {
	err := NewProfileError("work", ErrProfileNotFound, nil)
	assert.Equal(t, "profile not found: 'work'", err.Error())

	err = NewProfileError("work", ErrInvalidProfileContent, errors.New("unexpected token"))
	assert.Equal(t, "invalid profile content 'work': unexpected token", err.Error())
}

func TestScanBudgetErrorMessage(t *testing.T) {
	err := &ScanBudgetError{Path: "/cfg/a.settings.json", Errors: 3, Last: errors.New("permission denied")}
	assert.Contains(t, err.Error(), "after 3 consecutive errors")
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, "permission denied", errors.Unwrap(err).Error())
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil))
	assert.NoError(t, CombineErrors([]error{nil, nil}))

	single := errors.New("only")
	assert.Equal(t, single, CombineErrors([]error{nil, single}))

	combined := CombineErrors([]error{errors.New("a"), errors.New("b")})
	require.Error(t, combined)
	assert.Equal(t, "multiple errors occurred: [a; b]", combined.Error())
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.HasErrors())

	ec.Add(nil)
	ec.Add(errors.New("first"))
	ec.AddWithContext(errors.New("second"), "scan")

	assert.True(t, ec.HasErrors())
	assert.Len(t, ec.Errors(), 2)
	assert.Equal(t, "multiple errors occurred: [first; scan: second]", ec.Error().Error())
}

func TestGetRootCause(t *testing.T) {
	root := errors.New("root")
	err := WrapError(WrapError(root, "middle"), "top")
	assert.Equal(t, root, GetRootCause(err))
}
