package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	browsertest "github.com/ethereum-optimism/infra/op-browsertest"
	"github.com/ethereum-optimism/infra/op-browsertest/flags"
	"github.com/ethereum-optimism/infra/op-browsertest/logging"
	"github.com/ethereum-optimism/infra/op-browsertest/reporting"
	"github.com/ethereum-optimism/infra/op-browsertest/service"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-browsertest"
	app.Usage = "Browser end-to-end test harness"
	app.Description = "op-browsertest runs each browser test file in its own go test process and merges the reports"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.Commands = []*cli.Command{
		{
			Name:   "merge",
			Usage:  "Merge the per-file reports in --report-dir into one JSON and HTML report",
			Action: merge,
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), browsertest.ExitCode(err)))
	}
	return app
}

func setupLogging(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()
	return logger
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	cfg, err := browsertest.NewConfig(ctx, logger)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, browsertest.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	h, err := browsertest.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, browsertest.NewRuntimeError(fmt.Errorf("failed to create harness: %w", err))
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	svc := service.New(service.Config{
		HealthzAddr:    service.DefaultConfig().HealthzAddr,
		MetricsEnabled: metricsCfg.Enabled,
		MetricsAddr:    metricsCfg.ListenAddr,
		MetricsPort:    metricsCfg.ListenPort,
		Ready:          func() bool { return !h.Stopped() },
	}, logger)
	svc.Start()

	return &serviceLifecycle{Lifecycle: h, svc: svc}, nil
}

// serviceLifecycle shuts the healthz and metrics servers down with the harness.
type serviceLifecycle struct {
	cliapp.Lifecycle
	svc *service.Service
}

func (s *serviceLifecycle) Stop(ctx context.Context) error {
	err := s.Lifecycle.Stop(ctx)
	s.svc.Shutdown(ctx)
	return err
}

// merge runs only the report merger over the per-file reports already on disk.
func merge(ctx *cli.Context) error {
	logger := setupLogging(ctx)

	reportDir, execLogPath, err := browsertest.ReportPaths(ctx)
	if err != nil {
		return browsertest.NewRuntimeError(err)
	}
	execLog, err := logging.NewExecutionLog(execLogPath)
	if err != nil {
		return browsertest.NewRuntimeError(fmt.Errorf("failed to open execution log: %w", err))
	}
	defer execLog.Close()

	paths, err := reporting.FindReports(reportDir)
	if err != nil {
		return browsertest.NewRuntimeError(err)
	}
	merger := reporting.NewMerger(reportDir, ctx.String(flags.ReportTitle.Name), execLog, logger)
	if merger.GenerateMergedReports(paths) == nil && len(paths) > 0 {
		return browsertest.NewRuntimeError(errors.New("report merge failed, see the execution log"))
	}
	return nil
}
