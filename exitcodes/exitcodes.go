// Package exitcodes defines the exit codes used by op-browsertest.
package exitcodes

// * Success (0): the run completed, including runs where suites failed unless --fail-on-error is set
// * TestFailure (1): one or more test files failed and --fail-on-error is set
// * RuntimeErr (2): configuration errors, missing test directory or other operational failures
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
