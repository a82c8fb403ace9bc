// Package metrics exposes Prometheus counters and gauges for browser test runs.
package metrics

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-browsertest/types"
)

const (
	MetricsNamespace = "browsertest"

	// Longer error labels are cut to keep the errors_total cardinality readable.
	maxErrorLabelLen = 64
)

var (
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of harness errors by stage",
	}, []string{"error"})

	suiteRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_runs_total",
		Help:      "Count of test file executions",
	}, []string{"suite", "browser", "result"})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration_seconds",
		Help:      "Duration of the last execution of a test file",
	}, []string{"suite", "browser"})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of individual test results",
	}, []string{"suite", "result"})

	reportTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "merged_report_tests",
		Help:      "Test counts of the last merged report",
	}, []string{"state"})

	reportDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "merged_report_duration_seconds",
		Help:      "Summed test duration of the last merged report",
	})
)

// RecordError counts an error under a stage label such as "write_report".
func RecordError(stage string) {
	errorsTotal.WithLabelValues(stage).Inc()
}

// RecordErrorDetails counts err under "<stage>.<sanitized error>". Nil errors are ignored.
func RecordErrorDetails(stage string, err error) {
	if err == nil {
		return
	}
	label := sanitizeLabel(stage) + "." + sanitizeLabel(err.Error())
	log.Debug("Recording harness error", "stage", stage, "label", label)
	RecordError(label)
}

// sanitizeLabel lowercases s, keeps letters, and folds every run of other characters into one underscore.
// The result is at most maxErrorLabelLen bytes.
func sanitizeLabel(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			pendingSep = b.Len() > 0
			continue
		}
		need := utf8.RuneLen(r)
		if pendingSep {
			need++
		}
		if b.Len()+need > maxErrorLabelLen {
			break
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// RecordSuiteRun records one child process execution and the per-test counts it produced.
func RecordSuiteRun(browser string, run types.SuiteRun) {
	switch run.Status {
	case types.TestStatusPass, types.TestStatusFail, types.TestStatusSkip, types.TestStatusError:
	default:
		log.Error("Not recording suite run with unknown status", "suite", run.Name, "status", run.Status)
		return
	}
	suiteRunsTotal.WithLabelValues(run.Name, browser, string(run.Status)).Inc()
	suiteDuration.WithLabelValues(run.Name, browser).Set(run.Duration.Seconds())

	testsTotal.WithLabelValues(run.Name, string(types.TestStatusPass)).Add(float64(run.Stats.Passed))
	testsTotal.WithLabelValues(run.Name, string(types.TestStatusFail)).Add(float64(run.Stats.Failed))
	testsTotal.WithLabelValues(run.Name, string(types.TestStatusSkip)).Add(float64(run.Stats.Skipped))
}

// RecordMergedReport publishes the totals of the merged report.
func RecordMergedReport(tests, passes, failures, pending int, duration time.Duration) {
	reportTests.WithLabelValues("total").Set(float64(tests))
	reportTests.WithLabelValues("passed").Set(float64(passes))
	reportTests.WithLabelValues("failed").Set(float64(failures))
	reportTests.WithLabelValues("pending").Set(float64(pending))
	reportDuration.Set(duration.Seconds())
}
