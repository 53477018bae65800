package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctolnik/activity-monitor/agent/config"
	"github.com/ctolnik/activity-monitor/agent/monitoring"
	"github.com/ctolnik/activity-monitor/zapctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// syntheticPump delivers a fixed list of hook events and then blocks like
// a real message loop until ctx is done.
type syntheticPump struct {
	keyboard []monitoring.HookEvent
	mouse    []monitoring.HookEvent
	err      error
}

func (p *syntheticPump) Run(ctx context.Context, d *monitoring.Dispatcher, ready func()) error {
	if p.err != nil {
		return p.err
	}
	ready()
	next := func(monitoring.HookEvent) uintptr { return 0 }
	for _, ev := range p.keyboard {
		d.Keyboard(ev, next)
	}
	for _, ev := range p.mouse {
		d.Mouse(ev, next)
	}
	<-ctx.Done()
	return nil
}

type fixedWindow struct {
	id    monitoring.WindowID
	title string
}

func (w fixedWindow) Foreground() monitoring.WindowID { return w.id }

func (w fixedWindow) Title(monitoring.WindowID) (string, error) { return w.title, nil }

func (w fixedWindow) ProcessName(monitoring.WindowID) (string, error) { return "", errors.New("n/a") }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ActivityMonitoring.IntervalSeconds = 1
	return cfg
}

func TestAgentRunReportsInputAndUsage(t *testing.T) {
	ctx, cancel := context.WithTimeout(zapctx.WithLogger(t.Context(), zap.NewNop()), 200*time.Millisecond)
	defer cancel()

	pump := &syntheticPump{
		keyboard: []monitoring.HookEvent{
			{Code: 0, Message: 0x0100},
			{Code: 0, Message: 0x0101},
			{Code: 0, Message: 0x0104},
		},
		mouse: []monitoring.HookEvent{
			{Code: 0, Message: 0x0201},
			{Code: -1, Message: 0x0204},
		},
	}
	var out bytes.Buffer
	agent := NewAgent(testConfig(), pump, fixedWindow{id: 0x42, title: "Report.xlsx - Excel"}, &out)

	require.NoError(t, agent.Run(ctx))

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, got, 4)
	assert.Equal(t, []string{"keydown count: 1", "keydown count: 2", "mouse click count: 1"}, got[:3])
	assert.True(t, strings.HasPrefix(got[3], "APP: Report.xlsx - Excel, usage_time: "), got[3])

	assert.Equal(t, monitoring.CounterSnapshot{KeyPresses: 2, MouseClicks: 1}, agent.Counters().Snapshot())
}

func TestAgentRunHookFailureIsFatal(t *testing.T) {
	ctx := zapctx.WithLogger(t.Context(), zap.NewNop())
	installErr := errors.Join(monitoring.ErrHookInstall, errors.New("access denied"))
	var out bytes.Buffer
	agent := NewAgent(testConfig(), &syntheticPump{err: installErr}, fixedWindow{id: 0x42, title: "Excel"}, &out)

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, monitoring.ErrHookInstall)
		assert.Empty(t, out.String(), "no records may be written when startup fails")
	case <-time.After(5 * time.Second):
		t.Fatal("agent kept running after hook failure")
	}
}

func TestOpenOutput(t *testing.T) {
	w, closeFn, err := openOutput("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	closeFn()

	path := filepath.Join(t.TempDir(), "reports", "activity.log")
	w, closeFn, err = openOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("keydown count: 1\n"))
	require.NoError(t, err)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keydown count: 1\n", string(data))
}
