package reporting

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
)

// ExecLogger is the execution log the merger reports progress to.
type ExecLogger interface {
	Log(msg any)
	LogError(err error)
}

// Merge reads the report files and combines them into one report.
// Counts are recomputed from the merged tests; start is the earliest, end the latest and duration the sum.
func Merge(paths []string) (*Report, error) {
	if len(paths) == 0 {
		return nil, errors.New("no report files to merge")
	}
	reports := make([]*Report, 0, len(paths))
	for _, p := range paths {
		r, err := ReadReport(p)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return MergeReports(reports...), nil
}

// MergeReports combines already loaded reports.
func MergeReports(reports ...*Report) *Report {
	merged := &Report{Results: []*Suite{}}
	for i, r := range reports {
		if i == 0 {
			merged.Meta = r.Meta
			merged.Stats.Start = r.Stats.Start
			merged.Stats.End = r.Stats.End
		}
		merged.Results = append(merged.Results, r.Results...)
		if !r.Stats.Start.IsZero() && (merged.Stats.Start.IsZero() || r.Stats.Start.Before(merged.Stats.Start)) {
			merged.Stats.Start = r.Stats.Start
		}
		if r.Stats.End.After(merged.Stats.End) {
			merged.Stats.End = r.Stats.End
		}
		merged.Stats.Duration += r.Stats.Duration
	}
	merged.RecomputeCounts()
	return merged
}

// Merger writes the merged JSON and HTML reports into ReportDir.
type Merger struct {
	ReportDir string
	Title     string
	ExecLog   ExecLogger
	Log       log.Logger
}

func NewMerger(reportDir, title string, execLog ExecLogger, logger log.Logger) *Merger {
	if title == "" {
		title = DefaultTitle
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Merger{ReportDir: reportDir, Title: title, ExecLog: execLog, Log: logger}
}

// MergedJSONPath is where the merged JSON report is written.
func (m *Merger) MergedJSONPath() string {
	return filepath.Join(m.ReportDir, MergedReportFilename)
}

// MergedHTMLPath is where the HTML report is written.
func (m *Merger) MergedHTMLPath() string {
	return filepath.Join(m.ReportDir, MergedHTMLFilename)
}

// GenerateMergedReports merges the given report files and renders the HTML report.
// It is best-effort: failures are logged and nil is returned, nothing is propagated.
func (m *Merger) GenerateMergedReports(paths []string) *Report {
	if len(paths) == 0 {
		m.ExecLog.Log("No report files to merge.")
		return nil
	}

	m.ExecLog.Log("Starting report merge process...")
	merged, err := m.generate(paths)
	if err != nil {
		m.Log.Error("Report merge failed", "reports", len(paths), "err", err)
		m.ExecLog.LogError(fmt.Errorf("Error during report merging or generation: %w", err))
		return nil
	}
	return merged
}

func (m *Merger) generate(paths []string) (*Report, error) {
	m.ExecLog.Log("Merging reports...")
	merged, err := Merge(paths)
	if err != nil {
		return nil, err
	}
	if err := WriteReport(m.MergedJSONPath(), merged); err != nil {
		return nil, err
	}
	m.ExecLog.Log("Reports merged successfully.")
	m.Log.Info("Merged report written", "path", m.MergedJSONPath(),
		"tests", merged.Stats.Tests, "passes", merged.Stats.Passes, "failures", merged.Stats.Failures)

	m.ExecLog.Log("Generating HTML report...")
	if err := WriteHTML(m.MergedHTMLPath(), m.Title, merged); err != nil {
		return nil, err
	}
	m.ExecLog.Log("HTML report generated successfully.")
	m.ExecLog.Log(map[string]any{
		"reportTitle":  m.Title,
		"reportDir":    m.ReportDir,
		"inlineAssets": true,
	})
	m.ExecLog.Log("🤖")
	return merged, nil
}
