package browsertest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-browsertest/exitcodes"
)

func TestRuntimeError(t *testing.T) {
	base := errors.New("test directory missing")
	runtimeErr := NewRuntimeError(base)
	assert.Equal(t, "runtime error: test directory missing", runtimeErr.Error())
	assert.ErrorIs(t, runtimeErr, base)

	wrapped := fmt.Errorf("starting: %w", runtimeErr)
	assert.True(t, IsRuntimeError(wrapped))
	assert.False(t, IsTestFailureError(wrapped))
	assert.False(t, IsRuntimeError(nil))
}

func TestTestFailureError(t *testing.T) {
	failure := NewTestFailureError([]string{"google_search_test.go"}, 2)
	assert.Equal(t, "test failure: 1 of 2 test files failed: google_search_test.go", failure.Error())
	assert.True(t, IsTestFailureError(fmt.Errorf("run: %w", failure)))
	assert.False(t, IsRuntimeError(failure))

	assert.Equal(t, "test failure: 0 of 3 test files failed", NewTestFailureError(nil, 3).Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcodes.Success},
		{"runtime", NewRuntimeError(errors.New("no test dir")), exitcodes.RuntimeErr},
		{"wrapped runtime", fmt.Errorf("start: %w", NewRuntimeError(errors.New("x"))), exitcodes.RuntimeErr},
		{"test failure", NewTestFailureError([]string{"a_test.go"}, 2), exitcodes.TestFailure},
		{"other", errors.New("boom"), exitcodes.TestFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
