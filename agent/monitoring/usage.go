package monitoring

import (
	"context"
	"time"

	"github.com/ctolnik/activity-monitor/zapctx"
	"go.uber.org/zap"
)

const DefaultPollInterval = time.Second

// WindowID identifies a top-level window (an HWND on Windows).
type WindowID uintptr

// NoWindow means no window holds foreground focus.
const NoWindow WindowID = 0

// WindowSource resolves foreground focus. Title and ProcessName are
// best-effort: the window may be gone by the time they are called.
type WindowSource interface {
	Foreground() WindowID
	Title(id WindowID) (string, error)
	ProcessName(id WindowID) (string, error)
}

// Clock supplies timestamps. Durations are computed with Time.Sub, so a
// clock returning readings with a monotonic component is immune to
// wall-clock changes.
type Clock interface {
	Now() time.Time
}

// SystemClock is the process clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// UsageRecord describes one completed focus interval.
type UsageRecord struct {
	Title    string
	Process  string
	Duration time.Duration
}

// UsageSink receives usage records in the order focus changes are observed.
type UsageSink interface {
	Usage(rec UsageRecord)
}

type UsageOptions struct {
	Interval       time.Duration
	Clock          Clock
	ResolveProcess bool
	FlushOnStop    bool
}

// focusState is owned by the goroutine calling Poll/Run.
type focusState struct {
	window WindowID
	since  time.Time
}

// UsageTracker samples the foreground window at a fixed cadence and emits a
// UsageRecord each time focus moves away from a window.
type UsageTracker struct {
	source  WindowSource
	sink    UsageSink
	clock   Clock
	opts    UsageOptions
	current focusState
}

func NewUsageTracker(source WindowSource, sink UsageSink, opts UsageOptions) *UsageTracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &UsageTracker{
		source: source,
		sink:   sink,
		clock:  opts.Clock,
		opts:   opts,
	}
}

// Run polls until ctx is cancelled. The first sample is taken immediately.
func (t *UsageTracker) Run(ctx context.Context) error {
	zapctx.Info(ctx, "Usage tracker started", zap.Duration("interval", t.opts.Interval))

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	t.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			if t.opts.FlushOnStop {
				t.Flush(ctx)
			}
			zapctx.Info(ctx, "Usage tracker stopped")
			return nil
		case <-ticker.C:
			t.Poll(ctx)
		}
	}
}

// Poll takes one foreground sample and advances the state machine. It
// returns the emitted record, if any.
func (t *UsageTracker) Poll(ctx context.Context) (UsageRecord, bool) {
	sampled := t.source.Foreground()
	now := t.clock.Now()

	if t.current.window == sampled {
		return UsageRecord{}, false
	}

	var (
		rec     UsageRecord
		emitted bool
	)
	if t.current.window != NoWindow {
		rec = t.finish(ctx, now)
		emitted = true
	}

	t.current = focusState{window: sampled, since: now}
	if sampled != NoWindow {
		zapctx.Debug(ctx, "Focus acquired", zap.Uint64("window", uint64(sampled)))
	}
	return rec, emitted
}

// Flush emits a record for the window still holding focus and resets the
// tracker to the unset state.
func (t *UsageTracker) Flush(ctx context.Context) (UsageRecord, bool) {
	if t.current.window == NoWindow {
		return UsageRecord{}, false
	}
	rec := t.finish(ctx, t.clock.Now())
	t.current = focusState{}
	return rec, true
}

// Current reports the tracked window and when it gained focus.
func (t *UsageTracker) Current() (WindowID, time.Time) {
	return t.current.window, t.current.since
}

func (t *UsageTracker) finish(ctx context.Context, now time.Time) UsageRecord {
	w := t.current.window
	rec := UsageRecord{Duration: now.Sub(t.current.since)}

	title, err := t.source.Title(w)
	if err != nil {
		zapctx.Debug(ctx, "Window title unavailable", zap.Uint64("window", uint64(w)), zap.Error(err))
		title = ""
	}
	rec.Title = title

	if t.opts.ResolveProcess {
		if name, err := t.source.ProcessName(w); err == nil {
			rec.Process = name
		} else {
			zapctx.Debug(ctx, "Process name unavailable", zap.Uint64("window", uint64(w)), zap.Error(err))
		}
	}

	if t.sink != nil {
		t.sink.Usage(rec)
	}
	zapctx.Debug(ctx, "Focus interval completed",
		zap.String("title", rec.Title),
		zap.String("process", rec.Process),
		zap.Duration("duration", rec.Duration))
	return rec
}
