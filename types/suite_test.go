package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromExit(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		stats    SuiteStats
		err      error
		want     TestStatus
	}{
		{name: "clean pass", exitCode: 0, stats: SuiteStats{Tests: 2, Passed: 2}, want: TestStatusPass},
		{name: "non-zero exit", exitCode: 1, stats: SuiteStats{Tests: 2, Passed: 2}, want: TestStatusFail},
		{name: "failed test with zero exit", exitCode: 0, stats: SuiteStats{Tests: 2, Passed: 1, Failed: 1}, want: TestStatusFail},
		{name: "all skipped", exitCode: 0, stats: SuiteStats{Tests: 1, Skipped: 1}, want: TestStatusSkip},
		{name: "spawn error", exitCode: -1, err: errors.New("exec: not found"), want: TestStatusError},
		{name: "no tests", exitCode: 0, want: TestStatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromExit(tt.exitCode, tt.stats, tt.err))
		})
	}
}

func TestSummarize(t *testing.T) {
	runs := []SuiteRun{
		{Name: "github", Status: TestStatusPass, Stats: SuiteStats{Tests: 2, Passed: 2}, Duration: time.Second},
		{Name: "google", File: "google_search_test.go", Status: TestStatusFail, ExitCode: 1, Stats: SuiteStats{Tests: 2, Passed: 1, Failed: 1}, Duration: 2 * time.Second},
	}

	s := Summarize(runs)
	assert.Equal(t, 2, s.Suites)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, []string{"google_search_test.go"}, s.FailedFiles)
	assert.Equal(t, SuiteStats{Tests: 4, Passed: 3, Failed: 1}, s.Stats)
	assert.Equal(t, 3*time.Second, s.Duration)
	assert.Equal(t, TestStatusFail, s.Status)

	assert.Equal(t, TestStatusPass, Summarize(nil).Status)
}

func TestSuiteRunString(t *testing.T) {
	r := SuiteRun{Name: "github", Status: TestStatusPass, Stats: SuiteStats{Tests: 2, Passed: 2}, Duration: 1500 * time.Millisecond}
	assert.Equal(t, "github: pass (exit 0, 2 tests, 2 passed, 0 failed, 0 skipped, 1.5s)", r.String())
}
