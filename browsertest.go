package browsertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-browsertest/exitcodes"
	"github.com/ethereum-optimism/infra/op-browsertest/logging"
	"github.com/ethereum-optimism/infra/op-browsertest/metrics"
	"github.com/ethereum-optimism/infra/op-browsertest/reporting"
	"github.com/ethereum-optimism/infra/op-browsertest/runner"
	"github.com/ethereum-optimism/infra/op-browsertest/types"
)

// harness implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &harness{}

// harness runs every browser test file, merges the reports and prints the results.
type harness struct {
	ctx       context.Context
	config    *Config
	version   string
	execLog   *logging.ExecutionLog
	executor  *runner.Executor
	merger    *reporting.Merger
	formatter ResultFormatter

	mu     sync.Mutex
	runs   []types.SuiteRun
	merged *reporting.Report

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating browser test harness with config",
		"testDir", config.TestDir,
		"reportDir", config.ReportDir,
		"browser", config.Browser,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	execLog, err := logging.NewExecutionLog(config.ExecutionLog, logging.WithQueueDelay(config.LogQueueDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to open execution log: %w", err)
	}

	executor, err := runner.NewExecutor(runner.Config{
		TestDir:   config.TestDir,
		ReportDir: config.ReportDir,
		GoBinary:  config.GoBinary,
		Timeout:   config.Timeout,
		BuildTags: config.BuildTags,
		SetupFile: config.SetupFile,
		SkipFile:  config.SkipFile,
		Browser:   config.Browser,
		ExecLog:   execLog,
		Log:       config.Log,
		Queued:    config.QueuedLogging,
	})
	if err != nil {
		_ = execLog.Close()
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	return &harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		execLog:          execLog,
		executor:         executor,
		merger:           reporting.NewMerger(config.ReportDir, config.ReportTitle, mergeLog(execLog, config.QueuedLogging), config.Log),
		formatter:        NewConsoleResultFormatter(config.Log, os.Stdout),
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the test files once, or periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (h *harness) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("Runtime error occurred", "error", r)
			_ = h.execLog.Close()
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx
	h.done = make(chan struct{})
	h.running.Store(true)

	if h.config.RunOnce {
		h.config.Log.Info("Starting op-browsertest in run-once mode")
	} else {
		h.config.Log.Info("Starting op-browsertest in continuous mode", "interval", h.config.RunInterval)
	}

	summary, err := h.runTests(ctx)
	if err != nil {
		h.config.Log.Error("Runtime error running tests", "error", err)
		_ = h.execLog.Close()
		return err
	}

	if h.config.RunOnce {
		h.config.Log.Info("Tests completed, exiting (run-once mode)")
		if h.config.FailOnError && summary.Status == types.TestStatusFail {
			h.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			_ = h.execLog.Close()
			return NewTestFailureError(summary.FailedFiles, summary.Suites)
		}
		go func() {
			h.shutdownCallback(nil)
		}()
		return nil
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.config.Log.Debug("Starting periodic test runner goroutine", "interval", h.config.RunInterval)

		for {
			select {
			case <-time.After(h.config.RunInterval):
				if !h.running.Load() {
					h.config.Log.Debug("Service stopped, exiting periodic test runner")
					return
				}
				h.config.Log.Info("Running periodic tests")
				if _, err := h.runTests(ctx); err != nil {
					h.config.Log.Error("Error running periodic tests", "error", err)
				}
			case <-h.done:
				h.config.Log.Debug("Done signal received, stopping periodic test runner")
				return
			case <-ctx.Done():
				h.config.Log.Debug("Context canceled, stopping periodic test runner")
				h.running.Store(false)
				return
			}
		}
	}()
	h.config.Log.Debug("op-browsertest started successfully")
	return nil
}

// runTests executes every test file, then merges the per-file reports and prints the results.
func (h *harness) runTests(ctx context.Context) (types.RunSummary, error) {
	h.config.Log.Info("Running all test files...", "browser", h.config.Browser)
	runs, err := h.executor.RunAll(ctx)
	if err != nil {
		metrics.RecordErrorDetails("run all", err)
		return types.RunSummary{}, NewRuntimeError(err)
	}

	merged := h.merger.GenerateMergedReports(reportPaths(runs))
	if merged != nil {
		metrics.RecordMergedReport(merged.Stats.Tests, merged.Stats.Passes, merged.Stats.Failures,
			merged.Stats.Pending, time.Duration(merged.Stats.Duration)*time.Millisecond)
	}

	h.mu.Lock()
	h.runs, h.merged = runs, merged
	h.mu.Unlock()

	if err := h.formatter.FormatResults(runs); err != nil {
		h.config.Log.Warn("Failed to print results", "err", err)
	}
	summary := types.Summarize(runs)
	h.config.Log.Info("Test run completed", "files", summary.Suites, "failedFiles", summary.Failed,
		"tests", summary.Stats.Tests, "status", summary.Status, "duration", summary.Duration)
	return summary, nil
}

// mergeLog keeps the merge progress lines in the same logging mode as the test output.
func mergeLog(execLog *logging.ExecutionLog, queued bool) reporting.ExecLogger {
	if queued {
		return logging.QueuedLog{ExecutionLog: execLog}
	}
	return execLog
}

// reportPaths lists the reports written by this run. Reports left on disk by earlier runs are never merged.
func reportPaths(runs []types.SuiteRun) []string {
	paths := make([]string, 0, len(runs))
	for _, run := range runs {
		if run.ReportPath != "" {
			paths = append(paths, run.ReportPath)
		}
	}
	return paths
}

// Results returns the records and merged report of the last run.
func (h *harness) Results() ([]types.SuiteRun, *reporting.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runs, h.merged
}

// Stop stops the periodic runner and closes the execution log.
// Stop implements the cliapp.Lifecycle interface.
func (h *harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping op-browsertest")

	if !h.running.Load() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return h.execLog.Close()
	}
	h.running.Store(false)

	h.config.Log.Debug("Sending done signal to goroutines")
	close(h.done)
	h.wg.Wait()

	h.config.Log.Info("op-browsertest stopped successfully")
	return h.execLog.Close()
}

func (h *harness) Stopped() bool {
	return !h.running.Load()
}
