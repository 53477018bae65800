package monitoring

import (
	"context"
	"errors"
)

// Low-level hook message identifiers (winuser.h).
const (
	hcAction = 0

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
)

var (
	// ErrHookInstall wraps any failure to register a low-level hook.
	ErrHookInstall = errors.New("install input hook")
	// ErrUnsupported is returned by OS bindings on platforms without
	// low-level input hooks.
	ErrUnsupported = errors.New("input hooks not supported on this platform")
)

// HookEvent is one low-level hook notification as handed to a hook procedure.
type HookEvent struct {
	// Code is the hook-chain position code. Negative values must be passed on
	// untouched.
	Code int32
	// Message is the window message identifying the event subtype.
	Message uint32
	// Data is the OS payload pointer (KBDLLHOOKSTRUCT / MSLLHOOKSTRUCT).
	Data uintptr
}

// NextHook forwards an event to the next procedure in the hook chain and
// returns its result.
type NextHook func(HookEvent) uintptr

// InputSink receives post-increment counter values. Implementations must not
// block.
type InputSink interface {
	KeyPress(count uint64)
	MouseClick(count uint64)
}

// HookPump owns the OS side of hook delivery: registration, the message loop
// and teardown. Run blocks until ctx is done or delivery fails. ready is
// called once, on the caller's goroutine, after every hook is installed; it
// is never called when installation fails.
type HookPump interface {
	Run(ctx context.Context, d *Dispatcher, ready func()) error
}

// Dispatcher turns raw hook notifications into counter updates.
type Dispatcher struct {
	counters *Counters
	sink     InputSink
}

func NewDispatcher(counters *Counters, sink InputSink) *Dispatcher {
	return &Dispatcher{counters: counters, sink: sink}
}

// Counters returns the counters this dispatcher increments.
func (d *Dispatcher) Counters() *Counters {
	return d.counters
}

// Keyboard handles a WH_KEYBOARD_LL notification and always forwards it.
func (d *Dispatcher) Keyboard(ev HookEvent, next NextHook) uintptr {
	if ev.Code >= hcAction && isKeyDown(ev.Message) {
		d.report(d.counters.IncrementKeyPress, d.keyPress)
	}
	return next(ev)
}

// Mouse handles a WH_MOUSE_LL notification and always forwards it.
func (d *Dispatcher) Mouse(ev HookEvent, next NextHook) uintptr {
	if ev.Code >= hcAction && isButtonDown(ev.Message) {
		d.report(d.counters.IncrementMouseClick, d.mouseClick)
	}
	return next(ev)
}

// report increments first so a misbehaving sink can never cost a count.
func (d *Dispatcher) report(increment func() uint64, emit func(uint64)) {
	n := increment()
	if d.sink == nil {
		return
	}
	defer func() { _ = recover() }()
	emit(n)
}

func (d *Dispatcher) keyPress(n uint64)   { d.sink.KeyPress(n) }
func (d *Dispatcher) mouseClick(n uint64) { d.sink.MouseClick(n) }

func isKeyDown(msg uint32) bool {
	return msg == wmKeyDown || msg == wmSysKeyDown
}

func isButtonDown(msg uint32) bool {
	switch msg {
	case wmLButtonDown, wmRButtonDown, wmMButtonDown, wmXButtonDown:
		return true
	}
	return false
}
