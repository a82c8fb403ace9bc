package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

const (
	StatePassed  = "passed"
	StateFailed  = "failed"
	StatePending = "pending"

	// SlowThreshold matches mochawesome's default "slow" marker.
	SlowThreshold = 75 * time.Millisecond

	ReportFilename       = "mochawesome.json"
	EventsFilename       = "events.jsonl"
	MergedReportFilename = "mochawesome-merged.json"
	MergedHTMLFilename   = "mochawesome.html"
	DefaultTitle         = "Merged Test Report"
)

// Report is a mochawesome-compatible JSON report.
type Report struct {
	Stats   Stats    `json:"stats"`
	Results []*Suite `json:"results"`
	Meta    Meta     `json:"meta"`
}

type Stats struct {
	Suites          int       `json:"suites"`
	Tests           int       `json:"tests"`
	Passes          int       `json:"passes"`
	Pending         int       `json:"pending"`
	Failures        int       `json:"failures"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Duration        int64     `json:"duration"` // milliseconds
	TestsRegistered int       `json:"testsRegistered"`
	PassPercent     float64   `json:"passPercent"`
	PendingPercent  float64   `json:"pendingPercent"`
	Other           int       `json:"other"`
	HasOther        bool      `json:"hasOther"`
	Skipped         int       `json:"skipped"`
	HasSkipped      bool      `json:"hasSkipped"`
}

type Suite struct {
	UUID        string   `json:"uuid"`
	Title       string   `json:"title"`
	FullFile    string   `json:"fullFile"`
	File        string   `json:"file"`
	BeforeHooks []*Test  `json:"beforeHooks"`
	AfterHooks  []*Test  `json:"afterHooks"`
	Tests       []*Test  `json:"tests"`
	Suites      []*Suite `json:"suites"`
	Passes      []string `json:"passes"`
	Failures    []string `json:"failures"`
	Pending     []string `json:"pending"`
	Skipped     []string `json:"skipped"`
	Duration    int64    `json:"duration"`
	Root        bool     `json:"root"`
	RootEmpty   bool     `json:"rootEmpty"`
	Timeout     int64    `json:"_timeout"`
}

type Test struct {
	Title      string    `json:"title"`
	FullTitle  string    `json:"fullTitle"`
	TimedOut   bool      `json:"timedOut"`
	Duration   int64     `json:"duration"`
	State      string    `json:"state,omitempty"`
	Speed      string    `json:"speed,omitempty"`
	Pass       bool      `json:"pass"`
	Fail       bool      `json:"fail"`
	Pending    bool      `json:"pending"`
	Context    *string   `json:"context"`
	Code       string    `json:"code"`
	Err        TestError `json:"err"`
	UUID       string    `json:"uuid"`
	ParentUUID string    `json:"parentUUID"`
	IsHook     bool      `json:"isHook"`
	Skipped    bool      `json:"skipped"`
}

type TestError struct {
	Message string `json:"message,omitempty"`
	EStack  string `json:"estack,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

type ToolMeta struct {
	Version string         `json:"version"`
	Options map[string]any `json:"options,omitempty"`
}

type Meta struct {
	Mocha       ToolMeta `json:"mocha"`
	Mochawesome ToolMeta `json:"mochawesome"`
	Marge       ToolMeta `json:"marge"`
}

// Walk visits every suite below (and including) the given ones, depth first.
func Walk(suites []*Suite, fn func(s *Suite)) {
	for _, s := range suites {
		fn(s)
		Walk(s.Suites, fn)
	}
}

// AllTests returns every test in the report in document order.
func (r *Report) AllTests() []*Test {
	var tests []*Test
	Walk(r.Results, func(s *Suite) {
		tests = append(tests, s.Tests...)
	})
	return tests
}

// RecomputeCounts rebuilds the count fields of the stats from the tests in the report.
// Start, End and Duration are left untouched.
func (r *Report) RecomputeCounts() {
	st := &r.Stats
	st.Suites, st.Tests, st.Passes, st.Pending, st.Failures, st.Skipped = 0, 0, 0, 0, 0, 0
	Walk(r.Results, func(s *Suite) {
		if !s.Root {
			st.Suites++
		}
	})
	for _, t := range r.AllTests() {
		st.Tests++
		switch {
		case t.Skipped:
			st.Skipped++
		case t.Pending:
			st.Pending++
		case t.Pass:
			st.Passes++
		case t.Fail:
			st.Failures++
		}
	}
	st.TestsRegistered = st.Tests
	st.Other = st.Tests - st.Passes - st.Failures - st.Pending - st.Skipped
	st.HasOther = st.Other > 0
	st.HasSkipped = st.Skipped > 0
	st.PassPercent = percent(st.Passes, st.TestsRegistered-st.Pending)
	st.PendingPercent = percent(st.Pending, st.TestsRegistered)
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}

// speed classifies a duration the way mochawesome does.
func speed(d time.Duration) string {
	switch {
	case d > SlowThreshold:
		return "slow"
	case d > SlowThreshold/2:
		return "medium"
	default:
		return "fast"
	}
}

// ReadReport loads a report file.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}

// WriteReport writes r as indented JSON, creating parent directories.
func WriteReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// FindReports lists the per-file reports under reportDir (<dir>/<name>-report/mochawesome.json).
func FindReports(reportDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(reportDir, "*-report", ReportFilename))
}
