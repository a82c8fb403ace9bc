package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
	"github.com/ethereum-optimism/infra/op-browsertest/metrics"
	"github.com/ethereum-optimism/infra/op-browsertest/reporting"
	"github.com/ethereum-optimism/infra/op-browsertest/testlist"
	"github.com/ethereum-optimism/infra/op-browsertest/types"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGoBinary  = "go"
	DefaultTimeout   = 60 * time.Second
	DefaultBuildTags = "e2e"
	DefaultSetupFile = "setup_test.go"
	DefaultSkipFile  = "pageobject_template_test.go"
	DefaultReportDir = "mochawesome-report"

	// maxLineBytes bounds a single line of child output.
	maxLineBytes = 4 * 1024 * 1024
	// stderrTailBytes is how much stderr is kept for the report of a crashed suite.
	stderrTailBytes = 64 * 1024
)

// ExecLog is the execution log the executor writes progress and child output to.
type ExecLog interface {
	Log(msg any)
	LogError(err error)
	LogQueued(msg any)
	LogErrorQueued(err error)
}

// CmdBuilder creates the child command. It is replaced in tests.
type CmdBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Config holds configuration for creating a new Executor
type Config struct {
	TestDir   string
	ReportDir string
	GoBinary  string        // path to the Go binary
	Timeout   time.Duration // passed to go test -timeout
	BuildTags string
	SetupFile string // compiled with every suite, never run alone
	SkipFile  string // page-object template, never run
	Browser   browser.Config
	ExecLog   ExecLog
	Log       log.Logger
	Queued    bool // route child output through the queued logger

	CmdBuilder CmdBuilder
	Teardown   func(cmd *exec.Cmd) error
}

// Executor runs every suite file in its own go test process, one at a time.
type Executor struct {
	cfg    Config
	log    log.Logger
	tracer trace.Tracer
}

// NewExecutor validates cfg and fills in defaults.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.TestDir == "" {
		return nil, errors.New("test directory is required")
	}
	if cfg.ExecLog == nil {
		return nil, errors.New("execution log is required")
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = DefaultReportDir
	}
	if cfg.GoBinary == "" {
		cfg.GoBinary = DefaultGoBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BuildTags == "" {
		cfg.BuildTags = DefaultBuildTags
	}
	if cfg.Browser.BrowserName() == "" {
		cfg.Browser = browser.DefaultConfig()
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.CmdBuilder == nil {
		cfg.CmdBuilder = exec.CommandContext
	}
	if cfg.Teardown == nil {
		cfg.Teardown = reapProcessGroup
	}
	return &Executor{
		cfg:    cfg,
		log:    cfg.Log,
		tracer: otel.Tracer("test executor"),
	}, nil
}

// ReportDir is where the per-file reports are written.
func (e *Executor) ReportDir() string {
	return e.cfg.ReportDir
}

// RunAll discovers the suite files and runs each one. A failing suite never fails the run;
// only discovery errors and cancellation are returned.
func (e *Executor) RunAll(ctx context.Context) ([]types.SuiteRun, error) {
	ctx, span := e.tracer.Start(ctx, "run all suites")
	defer span.End()

	e.logOutput("🚀")
	e.logOutput("Starting test execution...")

	if _, _, err := testlist.FindModule(e.cfg.TestDir); err != nil {
		e.logError(fmt.Errorf("Error executing test: %w", err))
		return nil, fmt.Errorf("test directory is not inside a Go module: %w", err)
	}
	d, err := testlist.FindSuiteFiles(e.cfg.TestDir, e.cfg.SetupFile, e.cfg.SkipFile)
	if err != nil {
		e.logError(fmt.Errorf("Error executing test: %w", err))
		return nil, err
	}
	for _, name := range d.Skipped {
		e.logOutput(fmt.Sprintf("Skipping test file: %s", name))
	}
	e.log.Info("Discovered suite files", "dir", d.Dir, "suites", len(d.Suites),
		"setup", d.Setup, "helpers", d.Helpers, "skipped", d.Skipped)

	runs := make([]types.SuiteRun, 0, len(d.Suites))
	for _, suite := range d.Suites {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return runs, err
		}
		run := e.RunSuite(ctx, d, suite)
		metrics.RecordSuiteRun(e.cfg.Browser.BrowserName(), run)
		runs = append(runs, run)
	}
	return runs, nil
}

// RunSuite runs a single suite file to completion and writes its report.
func (e *Executor) RunSuite(ctx context.Context, d *testlist.Discovery, suite testlist.SuiteFile) types.SuiteRun {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Name))
	defer span.End()

	run := types.SuiteRun{File: suite.Name, Name: suite.SuiteName(), ExitCode: -1}
	e.logOutput(fmt.Sprintf("Executing test file: %s", suite.Name))

	builder := reporting.NewBuilder(suite.Name, suite.Path, e.cfg.Timeout)
	start := time.Now()
	cmd := e.command(ctx, d, suite)
	exitCode, stderr, events, err := e.execute(cmd, suite, builder)
	run.Duration = time.Since(start)

	if err != nil {
		run.Err = err
		e.logError(fmt.Errorf("Error executing test: %w", err))
		metrics.RecordErrorDetails("suite execution", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		run.ExitCode = exitCode
		if exitCode != 0 {
			e.logOutput(fmt.Sprintf("Test failed with code %d", exitCode))
		}
	}
	e.teardown(cmd)

	report := builder.Report(run.ExitCode, stderr)
	run.Stats = types.SuiteStats{
		Tests:   report.Stats.Tests,
		Passed:  report.Stats.Passes,
		Failed:  report.Stats.Failures,
		Skipped: report.Stats.Pending + report.Stats.Skipped,
	}
	run.Status = types.StatusFromExit(run.ExitCode, run.Stats, run.Err)

	reportDir := filepath.Join(e.cfg.ReportDir, run.Name+"-report")
	reportPath := filepath.Join(reportDir, reporting.ReportFilename)
	if werr := reporting.WriteReport(reportPath, report); werr != nil {
		e.log.Error("Failed to write suite report", "suite", run.Name, "err", werr)
		metrics.RecordErrorDetails("write report", werr)
	} else {
		run.ReportPath = reportPath
	}
	if len(events) > 0 {
		if werr := os.WriteFile(filepath.Join(reportDir, reporting.EventsFilename), events, 0644); werr != nil {
			e.log.Warn("Failed to write raw events", "suite", run.Name, "err", werr)
		}
	}

	span.SetAttributes(
		attribute.String("suite", run.Name),
		attribute.Int("exit_code", run.ExitCode),
		attribute.String("status", string(run.Status)),
	)
	e.log.Info("Suite finished", "suite", run.Name, "status", run.Status, "exit", run.ExitCode,
		"tests", run.Stats.Tests, "failed", run.Stats.Failed, "duration", run.Duration)
	return run
}

// BuildArgs returns the go test arguments for one suite file.
func (e *Executor) BuildArgs(d *testlist.Discovery, suite testlist.SuiteFile) []string {
	args := []string{"test", "-json", "-count=1"}
	if e.cfg.BuildTags != "" {
		args = append(args, "-tags="+e.cfg.BuildTags)
	}
	args = append(args, fmt.Sprintf("-timeout=%s", e.cfg.Timeout))
	args = append(args, d.CompileFiles()...)
	return append(args, suite.Name)
}

func (e *Executor) env(ctx context.Context) []string {
	env := append(os.Environ(), e.cfg.Browser.Environ()...)
	return telemetry.InstrumentEnvironment(ctx, env)
}

func (e *Executor) command(ctx context.Context, d *testlist.Discovery, suite testlist.SuiteFile) *exec.Cmd {
	cmd := e.cfg.CmdBuilder(ctx, e.cfg.GoBinary, e.BuildArgs(d, suite)...)
	cmd.Dir = d.Dir
	cmd.Env = e.env(ctx)
	setProcessGroup(cmd)
	return cmd
}

// execute starts cmd and streams its output until it exits. It returns the exit code,
// the stderr tail and the raw test2json lines.
func (e *Executor) execute(cmd *exec.Cmd, suite testlist.SuiteFile, builder *reporting.Builder) (int, string, []byte, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, "", nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, "", nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	e.log.Debug("Running test command", "dir", cmd.Dir, "command", cmd.String())
	if err := cmd.Start(); err != nil {
		return -1, "", nil, fmt.Errorf("failed to start %s: %w", e.cfg.GoBinary, err)
	}

	var events bytes.Buffer
	stderrTail := newTailBuffer(stderrTailBytes)

	var g errgroup.Group
	g.Go(func() error {
		return scanLines(stdout, func(line []byte) {
			e.handleStdout(line, builder, &events)
		})
	})
	g.Go(func() error {
		return scanLines(stderrPipe, func(line []byte) {
			stderrTail.WriteLine(line)
			if text := strings.TrimSpace(string(line)); text != "" {
				e.logError(errors.New(text))
			}
		})
	})
	readErr := g.Wait()

	waitErr := cmd.Wait()
	if readErr != nil {
		e.log.Warn("Error reading child output", "suite", suite.Name, "err", readErr)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		return 0, string(stderrTail.Bytes()), events.Bytes(), nil
	case errors.As(waitErr, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			// killed by a signal
			code = 1
		}
		return code, string(stderrTail.Bytes()), events.Bytes(), nil
	default:
		return -1, string(stderrTail.Bytes()), events.Bytes(), waitErr
	}
}

func (e *Executor) handleStdout(line []byte, builder *reporting.Builder, events *bytes.Buffer) {
	ev, ok := builder.AddLine(line)
	if !ok {
		e.logOutput(string(line))
		return
	}
	events.Write(line)
	events.WriteByte('\n')
	if ev.Action == reporting.ActionOutput || ev.Action == reporting.ActionBuildOutput {
		e.logOutput(ev.Output)
	}
}

func (e *Executor) logOutput(text string) {
	if e.cfg.Queued {
		e.cfg.ExecLog.LogQueued(text)
		return
	}
	e.cfg.ExecLog.Log(text)
}

func (e *Executor) logError(err error) {
	if e.cfg.Queued {
		e.cfg.ExecLog.LogErrorQueued(err)
		return
	}
	e.cfg.ExecLog.LogError(err)
}

func (e *Executor) teardown(cmd *exec.Cmd) {
	if err := e.cfg.Teardown(cmd); err != nil {
		e.log.Warn("Teardown failed", "err", err)
	}
	e.logOutput("Browser closed after test execution")
}

func scanLines(r io.Reader, fn func(line []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		fn(scanner.Bytes())
	}
	return scanner.Err()
}
