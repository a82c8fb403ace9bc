package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ExecutionLogFilename = "executionLog.txt"
	TimestampFormat      = "2006-01-02T15:04:05.000Z07:00"
	DefaultQueueDelay    = 50 * time.Millisecond

	// The execution log is append-only across runs; rotation only guards against unbounded growth.
	maxLogSizeMB = 512
)

// ExecutionLog appends timestamped entries to a single execution log file and mirrors them to the console.
type ExecutionLog struct {
	path   string
	sink   io.WriteCloser
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	mu     sync.Mutex // serializes every write to the sink and the mirrors
	closed bool

	queueDelay time.Duration
	queue      *logQueue
	queueOnce  sync.Once
}

// Option configures an ExecutionLog.
type Option func(*ExecutionLog)

// WithStdout sets the mirror for info entries.
func WithStdout(w io.Writer) Option {
	return func(l *ExecutionLog) { l.stdout = w }
}

// WithStderr sets the mirror for error entries and sink failures.
func WithStderr(w io.Writer) Option {
	return func(l *ExecutionLog) { l.stderr = w }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *ExecutionLog) { l.now = now }
}

// WithQueueDelay sets the pause between two queued writes.
func WithQueueDelay(d time.Duration) Option {
	return func(l *ExecutionLog) { l.queueDelay = d }
}

// WithSink replaces the file sink, mostly for tests.
func WithSink(w io.WriteCloser) Option {
	return func(l *ExecutionLog) { l.sink = w }
}

// NewExecutionLog opens (or creates) the execution log at path in append mode.
func NewExecutionLog(path string, opts ...Option) (*ExecutionLog, error) {
	l := &ExecutionLog{
		path:       path,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		now:        time.Now,
		queueDelay: DefaultQueueDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		if path == "" {
			return nil, errors.New("execution log path is required")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.sink = &lumberjack.Logger{
			Filename:  path,
			MaxSize:   maxLogSizeMB,
			LocalTime: false,
		}
	}
	return l, nil
}

// Path returns the location of the execution log file.
func (l *ExecutionLog) Path() string {
	return l.path
}

// Log writes a timestamped entry to the log file and stdout.
// Strings are trimmed, other values are rendered as indented JSON. Empty entries are dropped.
func (l *ExecutionLog) Log(msg any) {
	text, ok := formatEntry(msg)
	if !ok {
		return
	}
	l.writeEntry(l.timestamp()+" - "+text, l.stdout)
}

// LogError writes a timestamped error entry to the log file and stderr.
func (l *ExecutionLog) LogError(err error) {
	if err == nil {
		return
	}
	l.writeEntry(l.timestamp()+" - Error: "+stripansi.Strip(err.Error()), l.stderr)
}

// Info writes its items joined by a single space, without a timestamp.
func (l *ExecutionLog) Info(items ...any) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, formatItem(item))
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return
	}
	l.writeEntry(text, l.stdout)
}

// Close drains any queued entries and closes the log file.
func (l *ExecutionLog) Close() error {
	l.queueOnce.Do(func() {})
	if l.queue != nil {
		l.queue.stop()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.sink.Close()
}

func (l *ExecutionLog) timestamp() string {
	return l.now().UTC().Format(TimestampFormat)
}

func (l *ExecutionLog) writeEntry(line string, mirror io.Writer) {
	data := []byte(line + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		fmt.Fprintf(l.stderr, "Error writing to log file: %v\n", os.ErrClosed)
		return
	}
	if _, err := l.sink.Write(data); err != nil {
		fmt.Fprintf(l.stderr, "Error writing to log file: %v\n", err)
	}
	if mirror != nil {
		_, _ = mirror.Write(data)
	}
}

// formatEntry renders a Log message. ok is false when there is nothing to write.
func formatEntry(msg any) (string, bool) {
	if isNil(msg) {
		return "", false
	}
	var text string
	switch v := msg.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case error:
		text = v.Error()
	case fmt.Stringer:
		text = v.String()
	default:
		text = toJSON(v)
	}
	text = strings.TrimSpace(stripansi.Strip(text))
	return text, text != ""
}

func formatItem(item any) string {
	if isNil(item) {
		return "null"
	}
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(stripansi.Strip(v))
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	switch reflect.TypeOf(item).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array, reflect.Pointer:
		return toJSON(item)
	default:
		return fmt.Sprint(item)
	}
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
