package monitoring

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	keys   []uint64
	clicks []uint64
}

func (s *recordingSink) KeyPress(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, n)
}

func (s *recordingSink) MouseClick(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = append(s.clicks, n)
}

type panickingSink struct{}

func (panickingSink) KeyPress(uint64)   { panic("sink exploded") }
func (panickingSink) MouseClick(uint64) { panic("sink exploded") }

// chain records every forwarded event and returns a marker value.
type chain struct {
	forwarded []HookEvent
}

const chainResult = 0xC0FFEE

func (c *chain) next(ev HookEvent) uintptr {
	c.forwarded = append(c.forwarded, ev)
	return chainResult
}

func TestKeyboardCountsKeyDownOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sink := &recordingSink{}
	d := NewDispatcher(NewCounters(), sink)
	c := &chain{}

	downs := []uint32{wmKeyDown, wmSysKeyDown}
	ups := []uint32{wmKeyUp, wmSysKeyUp}
	wantDowns := 0
	total := 500
	for i := 0; i < total; i++ {
		var m uint32
		if rng.Intn(2) == 0 {
			m = downs[rng.Intn(len(downs))]
			wantDowns++
		} else {
			m = ups[rng.Intn(len(ups))]
		}
		before := d.Counters().KeyPresses()
		ret := d.Keyboard(HookEvent{Code: hcAction, Message: m}, c.next)
		require.EqualValues(t, chainResult, ret)
		require.GreaterOrEqual(t, d.Counters().KeyPresses(), before)
	}

	assert.EqualValues(t, wantDowns, d.Counters().KeyPresses())
	assert.Zero(t, d.Counters().MouseClicks())
	assert.Len(t, c.forwarded, total)
	require.Len(t, sink.keys, wantDowns)
	for i, n := range sink.keys {
		assert.EqualValues(t, i+1, n)
	}
}

func TestMouseCountsButtonDownOnly(t *testing.T) {
	d := NewDispatcher(NewCounters(), &recordingSink{})
	c := &chain{}

	events := []uint32{
		wmMouseMove, wmLButtonDown, wmLButtonUp,
		wmRButtonDown, wmRButtonUp, wmMouseWheel,
		wmMButtonDown, wmMButtonUp,
		wmXButtonDown, wmXButtonUp, wmXButtonDown,
		wmMouseMove,
	}
	for _, m := range events {
		d.Mouse(HookEvent{Code: hcAction, Message: m}, c.next)
	}

	assert.EqualValues(t, 5, d.Counters().MouseClicks())
	assert.Zero(t, d.Counters().KeyPresses())
	assert.Len(t, c.forwarded, len(events))
}

func TestNonMatchingSubtypesLeaveCountersUnchanged(t *testing.T) {
	d := NewDispatcher(NewCounters(), &recordingSink{})
	c := &chain{}

	for _, m := range []uint32{wmKeyUp, wmSysKeyUp, wmMouseMove, wmLButtonDown} {
		d.Keyboard(HookEvent{Code: hcAction, Message: m}, c.next)
	}
	for _, m := range []uint32{wmMouseMove, wmLButtonUp, wmMouseWheel, wmKeyDown} {
		d.Mouse(HookEvent{Code: hcAction, Message: m}, c.next)
	}

	assert.Equal(t, CounterSnapshot{}, d.Counters().Snapshot())
	assert.Len(t, c.forwarded, 8)
}

func TestNegativeCodeIsPassedThrough(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(NewCounters(), sink)
	c := &chain{}

	key := HookEvent{Code: -1, Message: wmKeyDown, Data: 0x1234}
	click := HookEvent{Code: -1, Message: wmLButtonDown, Data: 0x5678}
	d.Keyboard(key, c.next)
	d.Mouse(click, c.next)

	assert.Equal(t, CounterSnapshot{}, d.Counters().Snapshot())
	assert.Empty(t, sink.keys)
	assert.Empty(t, sink.clicks)
	assert.Equal(t, []HookEvent{key, click}, c.forwarded)
}

func TestSinkPanicStillCountsAndForwards(t *testing.T) {
	d := NewDispatcher(NewCounters(), panickingSink{})
	c := &chain{}

	var ret uintptr
	require.NotPanics(t, func() {
		ret = d.Keyboard(HookEvent{Code: hcAction, Message: wmKeyDown}, c.next)
		d.Mouse(HookEvent{Code: hcAction, Message: wmRButtonDown}, c.next)
	})

	assert.EqualValues(t, chainResult, ret)
	assert.Equal(t, CounterSnapshot{KeyPresses: 1, MouseClicks: 1}, d.Counters().Snapshot())
	assert.Len(t, c.forwarded, 2)
}

func TestNilSinkIsAllowed(t *testing.T) {
	d := NewDispatcher(NewCounters(), nil)
	c := &chain{}

	d.Keyboard(HookEvent{Code: hcAction, Message: wmSysKeyDown}, c.next)
	assert.EqualValues(t, 1, d.Counters().KeyPresses())
}

func TestConcurrentCallbacks(t *testing.T) {
	const callers, perCaller = 8, 1000
	d := NewDispatcher(NewCounters(), &recordingSink{})
	next := func(HookEvent) uintptr { return 0 }

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				d.Keyboard(HookEvent{Code: hcAction, Message: wmKeyDown}, next)
				d.Mouse(HookEvent{Code: hcAction, Message: wmMButtonDown}, next)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, CounterSnapshot{KeyPresses: callers * perCaller, MouseClicks: callers * perCaller}, d.Counters().Snapshot())
}
