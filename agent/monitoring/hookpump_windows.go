//go:build windows

package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ctolnik/activity-monitor/zapctx"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// systemHookPump installs WH_KEYBOARD_LL and WH_MOUSE_LL on a dedicated,
// OS-locked thread and runs that thread's message loop. Low-level hooks are
// only delivered while the installing thread pumps messages.
type systemHookPump struct {
	mu       sync.Mutex
	threadID uint32
	keyboard uintptr
	mouse    uintptr
}

// NewSystemHookPump returns the Win32 hook binding.
func NewSystemHookPump() HookPump {
	return &systemHookPump{}
}

func (p *systemHookPump) Run(ctx context.Context, d *Dispatcher, ready func()) error {
	installed := make(chan error, 1)
	done := make(chan error, 1)

	go func() {
		done <- p.pump(d, installed)
	}()

	if err := <-installed; err != nil {
		<-done
		return err
	}
	zapctx.Info(ctx, "Input hooks installed", zap.Uint32("thread_id", p.thread()))
	if ready != nil {
		ready()
	}

	select {
	case <-ctx.Done():
		p.quit()
		err := <-done
		zapctx.Info(ctx, "Input hooks removed")
		return err
	case err := <-done:
		return err
	}
}

// pump runs entirely on one OS thread: install, loop, uninstall.
func (p *systemHookPump) pump(d *Dispatcher, ready chan<- error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p.mu.Lock()
	p.threadID = windows.GetCurrentThreadId()
	p.mu.Unlock()

	// Force creation of the thread message queue so PostThreadMessage works.
	var m msg
	procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, 0)

	keyboardProc := windows.NewCallback(func(nCode int, wParam uintptr, lParam uintptr) uintptr {
		return d.Keyboard(HookEvent{Code: int32(nCode), Message: uint32(wParam), Data: lParam}, callNextHook)
	})
	mouseProc := windows.NewCallback(func(nCode int, wParam uintptr, lParam uintptr) uintptr {
		return d.Mouse(HookEvent{Code: int32(nCode), Message: uint32(wParam), Data: lParam}, callNextHook)
	})

	keyboard, err := setHook(whKeyboardLL, keyboardProc)
	if err != nil {
		ready <- fmt.Errorf("%w: keyboard: %v", ErrHookInstall, err)
		return nil
	}
	mouse, err := setHook(whMouseLL, mouseProc)
	if err != nil {
		procUnhookWindowsHookEx.Call(keyboard)
		ready <- fmt.Errorf("%w: mouse: %v", ErrHookInstall, err)
		return nil
	}

	p.mu.Lock()
	p.keyboard, p.mouse = keyboard, mouse
	p.mu.Unlock()
	ready <- nil

	defer p.unhook()

	for {
		ret, _, callErr := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			return fmt.Errorf("GetMessage failed: %w", callErr)
		case 0:
			return nil
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (p *systemHookPump) thread() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threadID
}

func (p *systemHookPump) quit() {
	if id := p.thread(); id != 0 {
		procPostThreadMessage.Call(uintptr(id), wmQuit, 0, 0)
	}
}

func (p *systemHookPump) unhook() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keyboard != 0 {
		procUnhookWindowsHookEx.Call(p.keyboard)
		p.keyboard = 0
	}
	if p.mouse != 0 {
		procUnhookWindowsHookEx.Call(p.mouse)
		p.mouse = 0
	}
}

func setHook(idHook int, proc uintptr) (uintptr, error) {
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return 0, fmt.Errorf("GetModuleHandleEx: %w", err)
	}
	hook, _, err := procSetWindowsHookEx.Call(uintptr(idHook), proc, uintptr(module), 0)
	if hook == 0 {
		return 0, fmt.Errorf("SetWindowsHookEx(%d): %w", idHook, err)
	}
	return hook, nil
}

func callNextHook(ev HookEvent) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(ev.Code), uintptr(ev.Message), ev.Data)
	return ret
}
