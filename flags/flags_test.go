package flags

import (
	"testing"
	"time"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// Every flag needs a unique name, a single OP_BROWSERTEST_ env var and must stay optional,
// since running with no flags at all is the default workflow.
func TestFlagDeclarations(t *testing.T) {
	names := make(map[string]bool, len(Flags))
	for _, flag := range Flags {
		name := flag.Names()[0]
		require.False(t, names[name], "duplicate flag %s", name)
		names[name] = true

		withEnv, ok := flag.(interface{ GetEnvVars() []string })
		require.True(t, ok, "flag %s has no env vars", name)
		assert.Equal(t, []string{opservice.FlagNameToEnvVarName(name, EnvVarPrefix)}, withEnv.GetEnvVars(), name)

		req, ok := flag.(cli.RequiredFlag)
		require.True(t, ok, name)
		assert.False(t, req.IsRequired(), "flag %s must be optional", name)
	}
	assert.True(t, names["log.level"])
	assert.True(t, names["metrics.enabled"])
}

func runApp(t *testing.T, args []string, check func(ctx *cli.Context)) {
	t.Helper()
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			check(ctx)
			return CheckRequired(ctx)
		},
	}
	require.NoError(t, app.Run(append([]string{"op-browsertest"}, args...)))
}

func TestDefaults(t *testing.T) {
	runApp(t, nil, func(ctx *cli.Context) {
		assert.Equal(t, "suites", ctx.String(TestDir.Name))
		assert.Equal(t, "mochawesome-report", ctx.String(ReportDir.Name))
		assert.Equal(t, "chrome", ctx.String(Browser.Name))
		assert.True(t, ctx.Bool(Headless.Name))
		assert.Equal(t, 60*time.Second, ctx.Duration(Timeout.Name))
		assert.Equal(t, "pageobject_template_test.go", ctx.String(SkipFile.Name))
		assert.Equal(t, "setup_test.go", ctx.String(SetupFile.Name))
		assert.Equal(t, "e2e", ctx.String(BuildTags.Name))
		assert.Equal(t, 50*time.Millisecond, ctx.Duration(LogQueueDelay.Name))
		assert.Equal(t, "Merged Test Report", ctx.String(ReportTitle.Name))
		assert.Zero(t, ctx.Duration(RunInterval.Name))
		assert.False(t, ctx.Bool(FailOnError.Name))
		assert.False(t, ctx.Bool(QueuedLogging.Name))
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OP_BROWSERTEST_BROWSER", "firefox")
	t.Setenv("OP_BROWSERTEST_HEADLESS", "false")
	t.Setenv("OP_BROWSERTEST_TIMEOUT", "2m")

	runApp(t, nil, func(ctx *cli.Context) {
		assert.Equal(t, "firefox", ctx.String(Browser.Name))
		assert.False(t, ctx.Bool(Headless.Name))
		assert.Equal(t, 2*time.Minute, ctx.Duration(Timeout.Name))
	})
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("OP_BROWSERTEST_BROWSER", "firefox")

	runApp(t, []string{"--browser", "chromium", "--queued-logging"}, func(ctx *cli.Context) {
		assert.Equal(t, "chromium", ctx.String(Browser.Name))
		assert.True(t, ctx.Bool(QueuedLogging.Name))
	})
}
