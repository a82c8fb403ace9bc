// Package templates holds the helpers shared by the HTML report templates.
package templates

import (
	"fmt"
	"html/template"
	"time"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// FuncMap returns the functions available to every report template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMillis":  FormatMillis,
		"formatTime":    FormatTime,
		"getStateClass": StateClass,
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f)
		},
	}
}

// FormatDuration renders sub-second durations in milliseconds and longer ones truncated to the millisecond.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// FormatMillis formats a report duration, which is stored in milliseconds.
func FormatMillis(ms int64) string {
	return FormatDuration(time.Duration(ms) * time.Millisecond)
}

// FormatTime renders t in UTC, or "-" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

// StateClass maps a report test state to the CSS class the filters key on.
func StateClass(state string) string {
	switch state {
	case "passed":
		return "pass"
	case "failed":
		return "fail"
	case "pending", "skipped":
		return "skip"
	default:
		return "unknown"
	}
}
