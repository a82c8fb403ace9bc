package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogQueuedDrainsInOrderWithDelay(t *testing.T) {
	delay := 20 * time.Millisecond
	l, sink, stdout, _ := newTestLog(t, WithQueueDelay(delay))

	l.LogQueued("A")
	l.LogQueued("B")
	l.LogQueued("C")

	require.Eventually(t, func() bool { return len(sink.lines()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, l.Close())

	lines := sink.lines()
	for i, want := range []string{"A", "B", "C"} {
		m := entryPattern.FindStringSubmatch(lines[i])
		require.NotNil(t, m)
		assert.Equal(t, want, m[1])
	}

	sink.mu.Lock()
	times := append([]time.Time(nil), sink.times...)
	sink.mu.Unlock()
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), delay, "writes %d and %d too close", i-1, i)
	}
	assert.Contains(t, stdout.String(), " - B\n")
}

func TestLogQueuedResumesAfterIdle(t *testing.T) {
	l, sink, _, _ := newTestLog(t, WithQueueDelay(time.Millisecond))

	l.LogQueued("first")
	require.Eventually(t, func() bool { return len(sink.lines()) == 1 }, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	l.LogQueued("second")
	require.Eventually(t, func() bool { return len(sink.lines()) == 2 }, time.Second, time.Millisecond)

	require.NoError(t, l.Close())
	assert.Len(t, sink.lines(), 2, "no entry is written twice")
}

func TestCloseFlushesQueue(t *testing.T) {
	l, sink, _, _ := newTestLog(t, WithQueueDelay(time.Hour))

	l.LogQueued("one")
	l.LogErrorQueued(errors.New("two"))
	l.LogQueued(map[string]string{"k": "v"})
	l.LogQueued("   ")
	l.LogErrorQueued(nil)

	require.NoError(t, l.Close())

	lines := sink.lines()
	require.Len(t, lines, 5)
	assert.Regexp(t, ` - one$`, lines[0])
	assert.Regexp(t, ` - Error: two$`, lines[1])
	assert.Regexp(t, ` - \{$`, lines[2])
}

func TestQueuedAfterCloseIsReported(t *testing.T) {
	l, sink, _, stderr := newTestLog(t)
	require.NoError(t, l.Close())

	l.LogQueued("late")
	assert.Empty(t, sink.lines())
	assert.Contains(t, stderr.String(), "Error writing to log file")
}

func TestQueuedLogKeepsOrderWithQueuedEntries(t *testing.T) {
	l, sink, _, _ := newTestLog(t, WithQueueDelay(time.Hour))
	q := QueuedLog{ExecutionLog: l}

	l.LogQueued("child output")
	q.Log("Merging reports...")
	q.LogError(errors.New("merge failed"))

	require.NoError(t, l.Close())

	lines := sink.lines()
	require.Len(t, lines, 3)
	assert.Regexp(t, ` - child output$`, lines[0])
	assert.Regexp(t, ` - Merging reports\.\.\.$`, lines[1])
	assert.Regexp(t, ` - Error: merge failed$`, lines[2])
}
