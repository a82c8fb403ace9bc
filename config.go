package browsertest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-browsertest/browser"
	"github.com/ethereum-optimism/infra/op-browsertest/flags"
	"github.com/ethereum-optimism/infra/op-browsertest/logging"
)

// Config holds the application configuration
type Config struct {
	TestDir       string
	ReportDir     string
	ExecutionLog  string // Path of the execution log file
	Browser       browser.Config
	GoBinary      string
	Timeout       time.Duration // go test -timeout for each file
	SkipFile      string
	SetupFile     string
	BuildTags     string
	QueuedLogging bool
	LogQueueDelay time.Duration
	ReportTitle   string
	RunInterval   time.Duration // Interval between test runs
	RunOnce       bool          // Indicates if the service should exit after one test run
	FailOnError   bool          // Exit with code 1 when any test file failed
	Log           log.Logger
}

// HarnessFile is the optional YAML configuration file. Unset fields keep the flag values.
type HarnessFile struct {
	Browser  *string        `yaml:"browser"`
	Headless *bool          `yaml:"headless"`
	Skip     *string        `yaml:"skip"`
	Timeout  *time.Duration `yaml:"timeout"`
}

// LoadHarnessFile reads a YAML harness file. Unknown keys are rejected.
func LoadHarnessFile(path string) (*HarnessFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read harness file: %w", err)
	}
	var hf HarnessFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&hf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse harness file %s: %w", path, err)
	}
	return &hf, nil
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	testDir := ctx.String(flags.TestDir.Name)
	if testDir == "" {
		return nil, errors.New("test directory is required")
	}
	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}
	if info, err := os.Stat(absTestDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("test directory '%s' does not exist", absTestDir)
	}

	reportDir, executionLog, err := ReportPaths(ctx)
	if err != nil {
		return nil, err
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	cfg := &Config{
		TestDir:       absTestDir,
		ReportDir:     reportDir,
		ExecutionLog:  executionLog,
		Browser:       browser.NewConfig(strings.ToLower(strings.TrimSpace(ctx.String(flags.Browser.Name))), ctx.Bool(flags.Headless.Name)),
		GoBinary:      ctx.String(flags.GoBinary.Name),
		Timeout:       ctx.Duration(flags.Timeout.Name),
		SkipFile:      ctx.String(flags.SkipFile.Name),
		SetupFile:     ctx.String(flags.SetupFile.Name),
		BuildTags:     ctx.String(flags.BuildTags.Name),
		QueuedLogging: ctx.Bool(flags.QueuedLogging.Name),
		LogQueueDelay: ctx.Duration(flags.LogQueueDelay.Name),
		ReportTitle:   ctx.String(flags.ReportTitle.Name),
		RunInterval:   runInterval,
		RunOnce:       runInterval == 0,
		FailOnError:   ctx.Bool(flags.FailOnError.Name),
		Log:           log,
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		hf, err := LoadHarnessFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applyHarnessFile(hf, ctx.IsSet)
	}

	if !browser.IsSupported(cfg.Browser.BrowserName()) {
		log.Warn("Browser is not supported, every test file will fail to create a session",
			"browser", cfg.Browser.BrowserName(), "supported", browser.SupportedBrowsers())
	}
	return cfg, nil
}

// ReportPaths resolves the report directory and the execution log path.
func ReportPaths(ctx *cli.Context) (string, string, error) {
	reportDir := ctx.String(flags.ReportDir.Name)
	if reportDir == "" {
		return "", "", errors.New("report directory is required")
	}
	reportDir, err := filepath.Abs(reportDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve absolute path for report directory: %w", err)
	}
	executionLog := ctx.String(flags.ExecutionLog.Name)
	if executionLog == "" {
		executionLog = filepath.Join(reportDir, logging.ExecutionLogFilename)
	}
	executionLog, err = filepath.Abs(executionLog)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve absolute path for execution log: %w", err)
	}
	return reportDir, executionLog, nil
}

// applyHarnessFile overlays the file values on flags that were not set explicitly.
func (c *Config) applyHarnessFile(hf *HarnessFile, isSet func(name string) bool) {
	name, headless := c.Browser.BrowserName(), c.Browser.IsHeadless()
	if hf.Browser != nil && !isSet(flags.Browser.Name) {
		name = strings.ToLower(strings.TrimSpace(*hf.Browser))
	}
	if hf.Headless != nil && !isSet(flags.Headless.Name) {
		headless = *hf.Headless
	}
	c.Browser = browser.NewConfig(name, headless)
	if hf.Skip != nil && !isSet(flags.SkipFile.Name) {
		c.SkipFile = *hf.Skip
	}
	if hf.Timeout != nil && !isSet(flags.Timeout.Name) {
		c.Timeout = *hf.Timeout
	}
}
