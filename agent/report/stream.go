// Package report writes the agent's line-oriented activity stream.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ctolnik/activity-monitor/agent/monitoring"
	"github.com/ctolnik/activity-monitor/zapctx"
	"go.uber.org/zap"
)

const defaultQueueSize = 1024

// Options holds stream configuration
type Options struct {
	// QueueSize bounds the lines waiting to be written. Lines offered while
	// the queue is full are dropped.
	QueueSize int
}

// Stream formats counter and usage records as text lines. Enqueueing never
// blocks, so Stream is safe to use as the sink of a hook callback; a single
// writer goroutine started by Run drains the queue in FIFO order.
type Stream struct {
	w       *bufio.Writer
	lines   chan string
	dropped atomic.Uint64
	written atomic.Uint64
	failed  atomic.Uint64

	// mu orders offers against shutdown: offers hold it shared, drain
	// holds it exclusively while marking the stream stopped.
	mu      sync.RWMutex
	stopped bool
}

var (
	_ monitoring.InputSink = (*Stream)(nil)
	_ monitoring.UsageSink = (*Stream)(nil)
)

// New creates a stream writing to w.
func New(w io.Writer, opts Options) *Stream {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Stream{
		w:     bufio.NewWriter(w),
		lines: make(chan string, opts.QueueSize),
	}
}

// KeyPress implements monitoring.InputSink.
func (s *Stream) KeyPress(count uint64) {
	s.offer(FormatKeyPress(count))
}

// MouseClick implements monitoring.InputSink.
func (s *Stream) MouseClick(count uint64) {
	s.offer(FormatMouseClick(count))
}

// Usage implements monitoring.UsageSink.
func (s *Stream) Usage(rec monitoring.UsageRecord) {
	s.offer(FormatUsage(rec))
}

func FormatKeyPress(count uint64) string {
	return fmt.Sprintf("keydown count: %d", count)
}

func FormatMouseClick(count uint64) string {
	return fmt.Sprintf("mouse click count: %d", count)
}

func FormatUsage(rec monitoring.UsageRecord) string {
	return fmt.Sprintf("APP: %s, usage_time: %s", rec.Title, rec.Duration)
}

func (s *Stream) offer(line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		s.dropped.Add(1)
		return
	}
	select {
	case s.lines <- line:
	default:
		s.dropped.Add(1)
	}
}

// Run writes queued lines until ctx is cancelled, then writes whatever is
// still queued and flushes. Write failures are counted; only the first is
// logged.
func (s *Stream) Run(ctx context.Context) {
	defer s.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case line := <-s.lines:
			s.write(ctx, line)
			// Flush once the queue is momentarily empty so records show up
			// promptly without a syscall per line under bursts.
			if len(s.lines) == 0 {
				s.flush(ctx)
			}
		}
	}
}

func (s *Stream) drain(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	for {
		select {
		case line := <-s.lines:
			s.write(ctx, line)
		default:
			s.flush(ctx)
			if d := s.dropped.Load(); d > 0 {
				zapctx.Warn(ctx, "Report lines dropped", zap.Uint64("dropped", d))
			}
			return
		}
	}
}

func (s *Stream) write(ctx context.Context, line string) {
	if _, err := s.w.WriteString(line + "\n"); err != nil {
		s.fail(ctx, "Failed to write report line", err)
		return
	}
	s.written.Add(1)
}

func (s *Stream) flush(ctx context.Context) {
	if err := s.w.Flush(); err != nil {
		s.fail(ctx, "Failed to flush report stream", err)
	}
}

// fail logs only the first error; bufio keeps returning it afterwards.
func (s *Stream) fail(ctx context.Context, msg string, err error) {
	if s.failed.Add(1) == 1 {
		zapctx.Error(ctx, msg, zap.Error(err))
	}
}

// Dropped returns the number of lines discarded because the queue was full
// or the stream had stopped.
func (s *Stream) Dropped() uint64 { return s.dropped.Load() }

// Written returns the number of lines handed to the writer.
func (s *Stream) Written() uint64 { return s.written.Load() }

// Failed returns the number of write or flush errors.
func (s *Stream) Failed() uint64 { return s.failed.Load() }
