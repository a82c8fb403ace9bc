package types

import (
	"fmt"
	"time"
)

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass  TestStatus = "pass"
	TestStatusFail  TestStatus = "fail"
	TestStatusSkip  TestStatus = "skip"
	TestStatusError TestStatus = "error"
)

// SuiteStats counts the tests reported by one suite file.
type SuiteStats struct {
	Tests   int
	Passed  int
	Failed  int
	Skipped int
}

// SuiteRun is the record produced for each test file once its child process has terminated.
type SuiteRun struct {
	File       string        // Test file path relative to the test directory
	Name       string        // Suite name, the file name without the _test.go suffix
	ExitCode   int           // Exit code of the child process, -1 if it never ran
	ReportPath string        // Path of the per-file JSON report, empty if none was written
	Duration   time.Duration // Wall-clock time of the child process
	Status     TestStatus
	Stats      SuiteStats
	Err        error // Spawn or wait error, nil when the child ran to completion
}

// StatusFromExit derives a suite status from the child exit code and the reported stats.
func StatusFromExit(exitCode int, stats SuiteStats, err error) TestStatus {
	switch {
	case err != nil:
		return TestStatusError
	case exitCode != 0 || stats.Failed > 0:
		return TestStatusFail
	case stats.Tests > 0 && stats.Skipped == stats.Tests:
		return TestStatusSkip
	default:
		return TestStatusPass
	}
}

func (r SuiteRun) String() string {
	return fmt.Sprintf("%s: %s (exit %d, %d tests, %d passed, %d failed, %d skipped, %s)",
		r.Name, r.Status, r.ExitCode, r.Stats.Tests, r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped,
		r.Duration.Truncate(time.Millisecond))
}

// RunSummary aggregates a set of suite records.
type RunSummary struct {
	Suites      int
	Failed      int
	FailedFiles []string // File of every failed or errored record, in run order
	Stats    SuiteStats
	Duration time.Duration
	Status   TestStatus
}

// Summarize aggregates suite records into a RunSummary.
func Summarize(runs []SuiteRun) RunSummary {
	s := RunSummary{Suites: len(runs), Status: TestStatusPass}
	for _, r := range runs {
		s.Stats.Tests += r.Stats.Tests
		s.Stats.Passed += r.Stats.Passed
		s.Stats.Failed += r.Stats.Failed
		s.Stats.Skipped += r.Stats.Skipped
		s.Duration += r.Duration
		if r.Status == TestStatusFail || r.Status == TestStatusError {
			s.Failed++
			s.FailedFiles = append(s.FailedFiles, r.File)
			s.Status = TestStatusFail
		}
	}
	return s
}
