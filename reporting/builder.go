package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Go test2json (TestEvent) action constants for JSON test output
// See https://cs.opensource.google/go/go/+/master:src/cmd/test2json/main.go;l=34-60
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"

	// ActionBuildOutput carries compiler output for the package (go1.24+).
	ActionBuildOutput = "build-output"
)

// TestEvent represents a single event from the go test JSON output
type TestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action
}

// ParseTestEvent decodes one line of go test -json output.
func ParseTestEvent(line []byte) (TestEvent, error) {
	var ev TestEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return TestEvent{}, err
	}
	if ev.Action == "" {
		return TestEvent{}, fmt.Errorf("not a test event")
	}
	return ev, nil
}

type testNode struct {
	name     string // full go test name, e.g. TestGitHub/title
	title    string // last path element
	children []*testNode
	action   string
	elapsed  float64
	output   []string
}

func (n *testNode) failed() bool {
	return n.action == ActionFail || n.action == ""
}

// Builder turns the event stream of one suite file into a Report.
type Builder struct {
	file     string
	fullFile string
	timeout  time.Duration
	now      func() time.Time

	nodes     map[string]*testNode
	top       []*testNode
	pkgOutput []string
	start     time.Time
	end       time.Time
}

// NewBuilder creates a builder for the suite file. timeout is recorded as the suite _timeout.
func NewBuilder(file, fullFile string, timeout time.Duration) *Builder {
	return &Builder{
		file:     file,
		fullFile: fullFile,
		timeout:  timeout,
		now:      time.Now,
		nodes:    make(map[string]*testNode),
	}
}

// Add feeds one event into the builder.
func (b *Builder) Add(ev TestEvent) {
	ts := ev.Time
	if ts.IsZero() {
		ts = b.now()
	}
	if b.start.IsZero() || ts.Before(b.start) {
		b.start = ts
	}
	if ts.After(b.end) {
		b.end = ts
	}

	if ev.Test == "" {
		if ev.Action == ActionOutput || ev.Action == ActionBuildOutput {
			b.pkgOutput = append(b.pkgOutput, strings.TrimRight(ev.Output, "\n"))
		}
		return
	}

	n := b.node(ev.Test)
	switch ev.Action {
	case ActionOutput:
		if line := strings.TrimRight(ev.Output, "\n"); !isFramingLine(line) {
			n.output = append(n.output, line)
		}
	case ActionPass, ActionFail, ActionSkip:
		n.action = ev.Action
		n.elapsed = ev.Elapsed
	}
}

// AddLine parses and adds a raw output line. It reports whether the line was a test event.
func (b *Builder) AddLine(line []byte) (TestEvent, bool) {
	ev, err := ParseTestEvent(line)
	if err != nil {
		return TestEvent{}, false
	}
	b.Add(ev)
	return ev, true
}

// Tests returns the number of tests seen so far.
func (b *Builder) Tests() int {
	return len(b.nodes)
}

func (b *Builder) node(name string) *testNode {
	if n, ok := b.nodes[name]; ok {
		return n
	}
	n := &testNode{name: name, title: name}
	b.nodes[name] = n
	if i := strings.LastIndex(name, "/"); i > 0 {
		n.title = name[i+1:]
		parent := b.node(name[:i])
		parent.children = append(parent.children, n)
	} else {
		b.top = append(b.top, n)
	}
	return n
}

var framingPrefixes = []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS:", "--- FAIL:", "--- SKIP:"}

func isFramingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, p := range framingPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// Report assembles the suite report. exitCode and stderr come from the child process;
// a non-zero exit with no failing test yields a synthetic failed test so the failure is visible.
func (b *Builder) Report(exitCode int, stderr string) *Report {
	root := newSuite("", b.file, b.fullFile, b.timeout)
	root.Root = true

	timedOut := strings.Contains(strings.Join(b.pkgOutput, "\n"), "test timed out")
	for _, n := range b.top {
		if len(n.children) == 0 {
			root.addTest(b.test(n, timedOut))
		} else {
			root.Suites = append(root.Suites, b.suite(n, timedOut))
		}
	}

	r := &Report{
		Results: []*Suite{root},
		Meta:    DefaultMeta(),
	}
	r.RecomputeCounts()

	if exitCode != 0 && r.Stats.Failures == 0 {
		root.addTest(b.exitTest(exitCode, stderr))
		r.RecomputeCounts()
	}
	root.RootEmpty = len(root.Tests) == 0

	start, end := b.start, b.end
	if start.IsZero() {
		start = b.now()
		end = start
	}
	r.Stats.Start = start.UTC()
	r.Stats.End = end.UTC()
	r.Stats.Duration = end.Sub(start).Milliseconds()
	return r
}

func newSuite(title, file, fullFile string, timeout time.Duration) *Suite {
	return &Suite{
		UUID:        uuid.NewString(),
		Title:       title,
		File:        file,
		FullFile:    fullFile,
		BeforeHooks: []*Test{},
		AfterHooks:  []*Test{},
		Tests:       []*Test{},
		Suites:      []*Suite{},
		Passes:      []string{},
		Failures:    []string{},
		Pending:     []string{},
		Skipped:     []string{},
		Timeout:     timeout.Milliseconds(),
	}
}

func (s *Suite) addTest(t *Test) {
	t.ParentUUID = s.UUID
	s.Tests = append(s.Tests, t)
	s.Duration += t.Duration
	switch {
	case t.Skipped:
		s.Skipped = append(s.Skipped, t.UUID)
	case t.Pending:
		s.Pending = append(s.Pending, t.UUID)
	case t.Pass:
		s.Passes = append(s.Passes, t.UUID)
	case t.Fail:
		s.Failures = append(s.Failures, t.UUID)
	}
}

func (b *Builder) suite(n *testNode, timedOut bool) *Suite {
	s := newSuite(n.title, b.file, b.fullFile, b.timeout)
	childFailed := false
	for _, c := range n.children {
		if len(c.children) == 0 {
			s.addTest(b.test(c, timedOut))
		} else {
			s.Suites = append(s.Suites, b.suite(c, timedOut))
		}
		childFailed = childFailed || c.failed()
	}
	// a parent can fail in its own body after every subtest passed
	if n.failed() && !childFailed {
		s.addTest(b.test(n, timedOut))
	}
	s.Duration = secondsToMillis(n.elapsed)
	return s
}

func (b *Builder) test(n *testNode, timedOut bool) *Test {
	d := time.Duration(n.elapsed * float64(time.Second))
	t := &Test{
		Title:     n.title,
		FullTitle: strings.ReplaceAll(n.name, "/", " "),
		Duration:  d.Milliseconds(),
		Speed:     speed(d),
		UUID:      uuid.NewString(),
	}
	if len(n.output) > 0 {
		t.Context = jsonString(strings.Join(n.output, "\n"))
	}
	switch n.action {
	case ActionPass:
		t.State, t.Pass = StatePassed, true
	case ActionSkip:
		t.State, t.Pending = StatePending, true
	default:
		t.State, t.Fail = StateFailed, true
		t.TimedOut = n.action == "" && timedOut
		t.Err = failureFromOutput(n.output)
		if n.action == "" && t.Err.Message == "" {
			t.Err.Message = "test did not complete"
		}
	}
	return t
}

func (b *Builder) exitTest(exitCode int, stderr string) *Test {
	stack := append([]string{}, b.pkgOutput...)
	if s := strings.TrimSpace(stderr); s != "" {
		stack = append(stack, s)
	}
	return &Test{
		Title:     fmt.Sprintf("%s exited with code %d", b.file, exitCode),
		FullTitle: fmt.Sprintf("%s exited with code %d", b.file, exitCode),
		State:     StateFailed,
		Fail:      true,
		Speed:     "fast",
		UUID:      uuid.NewString(),
		Err: TestError{
			Message: fmt.Sprintf("go test exited with code %d", exitCode),
			EStack:  strings.TrimSpace(strings.Join(stack, "\n")),
		},
	}
}

func failureFromOutput(lines []string) TestError {
	var msg string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			msg = t
			break
		}
	}
	return TestError{Message: msg, EStack: strings.Join(lines, "\n")}
}

func jsonString(s string) *string {
	data, _ := json.Marshal(s)
	out := string(data)
	return &out
}

func secondsToMillis(s float64) int64 {
	return int64(math.Round(s * 1000))
}

// DefaultMeta describes the tool that produced a report.
func DefaultMeta() Meta {
	return Meta{
		Mocha:       ToolMeta{Version: runtime.Version()},
		Mochawesome: ToolMeta{Version: "op-browsertest"},
		Marge:       ToolMeta{Version: "op-browsertest"},
	}
}
