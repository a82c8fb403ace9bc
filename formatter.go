package browsertest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-browsertest/reporting"
	"github.com/ethereum-optimism/infra/op-browsertest/types"
)

// ResultFormatter prints the records of a finished run.
type ResultFormatter interface {
	FormatResults(runs []types.SuiteRun) error
}

// ConsoleResultFormatter renders the suite records as a table.
type ConsoleResultFormatter struct {
	log log.Logger
	out io.Writer
}

func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{log: logger, out: out}
}

var resultColumns = table.Row{"File", "Test", "Time", "Tests", "Pass", "Fail", "Skip", "Result", "Details"}

// FormatResults prints one row per test file followed by its tests, read back from the file's report.
func (f *ConsoleResultFormatter) FormatResults(runs []types.SuiteRun) error {
	summary := types.Summarize(runs)
	f.log.Debug("Rendering results table", "files", summary.Suites)

	tw := table.NewWriter()
	tw.SetOutputMirror(f.out)
	tw.SetTitle(fmt.Sprintf("Browser Test Results (%s)", formatDuration(summary.Duration)))
	tw.AppendHeader(resultColumns)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", AutoMerge: true, VAlign: text.VAlignMiddle},
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Name: "Details", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.File, "(all)", formatDuration(run.Duration),
			run.Stats.Tests, run.Stats.Passed, run.Stats.Failed, run.Stats.Skipped,
			getResultString(run.Status), runDetails(run),
		})
		for _, test := range f.reportTests(run) {
			status := testStatus(test)
			tw.AppendRow(table.Row{
				run.File, test.FullTitle, formatDuration(time.Duration(test.Duration) * time.Millisecond),
				1, boolToInt(status == types.TestStatusPass), boolToInt(status == types.TestStatusFail),
				boolToInt(status == types.TestStatusSkip), getResultString(status), test.Err.Message,
			})
		}
		tw.AppendSeparator()
	}

	style := styleFor(summary.Status)
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d files", summary.Suites), fmt.Sprintf("%d failed", summary.Failed), formatDuration(summary.Duration),
		summary.Stats.Tests, summary.Stats.Passed, summary.Stats.Failed, summary.Stats.Skipped,
		getResultString(summary.Status), "",
	})
	tw.Render()
	return nil
}

func styleFor(status types.TestStatus) table.Style {
	switch status {
	case types.TestStatusPass:
		return table.StyleColoredBlackOnGreenWhite
	case types.TestStatusSkip:
		return table.StyleColoredBlackOnYellowWhite
	default:
		return table.StyleColoredBlackOnRedWhite
	}
}

// runDetails explains a file-level failure that no single test accounts for.
func runDetails(run types.SuiteRun) string {
	switch {
	case run.Err != nil:
		return run.Err.Error()
	case run.ExitCode != 0:
		return fmt.Sprintf("exit code %d", run.ExitCode)
	default:
		return ""
	}
}

func (f *ConsoleResultFormatter) reportTests(run types.SuiteRun) []*reporting.Test {
	if run.ReportPath == "" {
		return nil
	}
	r, err := reporting.ReadReport(run.ReportPath)
	if err != nil {
		f.log.Warn("Failed to read suite report", "suite", run.Name, "err", err)
		return nil
	}
	return r.AllTests()
}

func testStatus(t *reporting.Test) types.TestStatus {
	switch {
	case t.Pass:
		return types.TestStatusPass
	case t.Pending || t.Skipped:
		return types.TestStatusSkip
	default:
		return types.TestStatusFail
	}
}

// formatDuration renders seconds with one decimal.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	case types.TestStatusError:
		return "✗ error"
	default:
		return "✗ fail"
	}
}
