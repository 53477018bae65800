package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ctolnik/activity-monitor/agent/config"
	"github.com/ctolnik/activity-monitor/agent/monitoring"
	"github.com/ctolnik/activity-monitor/agent/report"
	"github.com/ctolnik/activity-monitor/zapctx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Agent wires the input hooks and the usage tracker to one output stream.
type Agent struct {
	cfg     *config.Config
	pump    monitoring.HookPump
	windows monitoring.WindowSource
	out     io.Writer

	counters *monitoring.Counters
	stream   *report.Stream
}

func NewAgent(cfg *config.Config, pump monitoring.HookPump, windows monitoring.WindowSource, out io.Writer) *Agent {
	return &Agent{
		cfg:      cfg,
		pump:     pump,
		windows:  windows,
		out:      out,
		counters: monitoring.NewCounters(),
		stream:   report.New(out, report.Options{QueueSize: cfg.Report.QueueSize}),
	}
}

// Counters exposes the process-wide input counters.
func (a *Agent) Counters() *monitoring.Counters {
	return a.counters
}

// Run blocks until ctx is cancelled or the hook pump stops. A hook
// installation failure is returned wrapped in monitoring.ErrHookInstall.
func (a *Agent) Run(ctx context.Context) error {
	ctx = zapctx.Ensure(ctx, zap.NewNop())

	// The tracker may emit a final record after ctx is done, so the stream
	// is stopped explicitly once the tracker has returned.
	streamCtx, stopStream := context.WithCancel(context.WithoutCancel(zapctx.Named(ctx, "report")))
	defer stopStream()
	trackCtx, stopTracking := context.WithCancel(zapctx.Named(ctx, "usage"))
	defer stopTracking()

	var streamWG, trackWG sync.WaitGroup

	streamWG.Add(1)
	go func() {
		defer streamWG.Done()
		a.stream.Run(streamCtx)
	}()

	tracker := monitoring.NewUsageTracker(a.windows, a.stream, monitoring.UsageOptions{
		Interval:       a.cfg.ActivityMonitoring.Interval(),
		ResolveProcess: a.cfg.ActivityMonitoring.TrackProcessNames,
		FlushOnStop:    a.cfg.ActivityMonitoring.ShouldFlushOnStop(),
	})

	// Focus tracking starts only once both hooks are live, so a failed
	// installation leaves the output untouched.
	var trackErr error
	startTracking := func() {
		trackWG.Add(1)
		go func() {
			defer trackWG.Done()
			trackErr = tracker.Run(trackCtx)
		}()
	}

	dispatcher := monitoring.NewDispatcher(a.counters, a.stream)
	pumpErr := a.pump.Run(zapctx.Named(ctx, "hooks"), dispatcher, startTracking)
	if pumpErr != nil {
		pumpErr = fmt.Errorf("hook pump: %w", pumpErr)
	}

	stopTracking()
	trackWG.Wait()
	stopStream()
	streamWG.Wait()

	snap := a.counters.Snapshot()
	zapctx.Info(ctx, "Agent stopped",
		zap.Uint64("key_presses", snap.KeyPresses),
		zap.Uint64("mouse_clicks", snap.MouseClicks),
		zap.Uint64("lines_written", a.stream.Written()),
		zap.Uint64("lines_dropped", a.stream.Dropped()))

	return multierr.Combine(pumpErr, trackErr)
}
