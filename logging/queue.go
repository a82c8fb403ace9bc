package logging

import (
	"sync"
	"time"

	"github.com/acarl005/stripansi"
)

// logQueue is an unbounded FIFO drained by a single goroutine, one entry per delay.
type logQueue struct {
	log   *ExecutionLog
	delay time.Duration

	mu      sync.Mutex
	entries []string
	stopped bool

	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newLogQueue(l *ExecutionLog, delay time.Duration) *logQueue {
	q := &logQueue{
		log:    l,
		delay:  delay,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// LogQueued enqueues an entry. It is timestamped and written when the drain goroutine reaches it.
func (l *ExecutionLog) LogQueued(msg any) {
	text, ok := formatEntry(msg)
	if !ok {
		return
	}
	l.enqueue(text)
}

// LogErrorQueued enqueues an error entry.
func (l *ExecutionLog) LogErrorQueued(err error) {
	if err == nil {
		return
	}
	l.enqueue("Error: " + stripansi.Strip(err.Error()))
}

func (l *ExecutionLog) enqueue(text string) {
	l.queueOnce.Do(func() {
		l.queue = newLogQueue(l, l.queueDelay)
	})
	if l.queue == nil {
		// closed before anything was queued
		l.writeEntry(l.timestamp()+" - "+text, l.stdout)
		return
	}
	l.queue.push(text)
}

func (q *logQueue) push(text string) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.write(text)
		return
	}
	q.entries = append(q.entries, text)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *logQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return "", false
	}
	text := q.entries[0]
	q.entries[0] = ""
	q.entries = q.entries[1:]
	return text, true
}

func (q *logQueue) run() {
	defer q.wg.Done()
	for {
		text, ok := q.pop()
		if !ok {
			select {
			case <-q.notify:
				continue
			case <-q.done:
				if _, more := q.peek(); more {
					continue
				}
				return
			}
		}

		q.write(text)

		timer := time.NewTimer(q.delay)
		select {
		case <-timer.C:
		case <-q.done:
			// flush the remainder without waiting
			timer.Stop()
		}
	}
}

func (q *logQueue) peek() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return "", false
	}
	return q.entries[0], true
}

func (q *logQueue) write(text string) {
	q.log.writeEntry(q.log.timestamp()+" - "+text, q.log.stdout)
}

// stop flushes pending entries and waits for the drain goroutine to exit.
func (q *logQueue) stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		q.mu.Unlock()
		close(q.done)
	})
	q.wg.Wait()
}

// QueuedLog routes Log and LogError through the queue, so components that only
// know the immediate methods keep their entries in order with queued output.
type QueuedLog struct {
	*ExecutionLog
}

func (q QueuedLog) Log(msg any) {
	q.LogQueued(msg)
}

func (q QueuedLog) LogError(err error) {
	q.LogErrorQueued(err)
}
