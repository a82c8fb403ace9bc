package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
	"github.com/ethereum-optimism/infra/op-browsertest/runner"
)

const EnvVarPrefix = "OP_BROWSERTEST"

var (
	TestDir = &cli.StringFlag{
		Name:    "testdir",
		Value:   "suites",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TESTDIR"),
		Usage:   "Directory holding the browser test files, one go test process is run per file",
	}
	ReportDir = &cli.StringFlag{
		Name:    "report-dir",
		Value:   runner.DefaultReportDir,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_DIR"),
		Usage:   "Directory for per-file reports, the merged report and the execution log",
	}
	ExecutionLog = &cli.StringFlag{
		Name:    "execution-log",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXECUTION_LOG"),
		Usage:   "Path of the execution log file. Defaults to <report-dir>/executionLog.txt",
	}
	Browser = &cli.StringFlag{
		Name:    "browser",
		Value:   browser.DefaultBrowser,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BROWSER"),
		Usage:   "Browser to drive (chrome, chromium, firefox)",
	}
	Headless = &cli.BoolFlag{
		Name:    "headless",
		Value:   browser.DefaultHeadless,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEADLESS"),
		Usage:   "Run the browser without a window",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Optional YAML harness file (eg. 'browsertest.yaml'). Flags set explicitly take precedence",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   runner.DefaultGoBinary,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GO_BINARY"),
		Usage:   "Path to the Go binary to use for running tests",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   runner.DefaultTimeout,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Timeout passed to go test for each test file",
	}
	SkipFile = &cli.StringFlag{
		Name:    "skip-file",
		Value:   runner.DefaultSkipFile,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SKIP_FILE"),
		Usage:   "Test file that is never executed",
	}
	SetupFile = &cli.StringFlag{
		Name:    "setup-file",
		Value:   runner.DefaultSetupFile,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SETUP_FILE"),
		Usage:   "Test file compiled with every suite and never executed on its own",
	}
	BuildTags = &cli.StringFlag{
		Name:    "build-tags",
		Value:   runner.DefaultBuildTags,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BUILD_TAGS"),
		Usage:   "Build tags passed to go test",
	}
	QueuedLogging = &cli.BoolFlag{
		Name:    "queued-logging",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "QUEUED_LOGGING"),
		Usage:   "Write child output through the delayed log queue instead of immediately",
	}
	LogQueueDelay = &cli.DurationFlag{
		Name:    "log-queue-delay",
		Value:   50 * time.Millisecond,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_QUEUE_DELAY"),
		Usage:   "Delay between two queued log writes",
	}
	ReportTitle = &cli.StringFlag{
		Name:    "report-title",
		Value:   "Merged Test Report",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_TITLE"),
		Usage:   "Title of the merged HTML report",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	FailOnError = &cli.BoolFlag{
		Name:    "fail-on-error",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_ERROR"),
		Usage:   "Exit with code 1 when any test file fails",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	TestDir,
	ReportDir,
	ExecutionLog,
	Browser,
	Headless,
	ConfigFile,
	GoBinary,
	Timeout,
	SkipFile,
	SetupFile,
	BuildTags,
	QueuedLogging,
	LogQueueDelay,
	ReportTitle,
	RunInterval,
	FailOnError,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
