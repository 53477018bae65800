//go:build windows

package monitoring

import (
	"golang.org/x/sys/windows"
)

var (
	modUser32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookEx         = modUser32.NewProc("SetWindowsHookExW")
	procCallNextHookEx           = modUser32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx      = modUser32.NewProc("UnhookWindowsHookEx")
	procGetMessage               = modUser32.NewProc("GetMessageW")
	procPeekMessage              = modUser32.NewProc("PeekMessageW")
	procTranslateMessage         = modUser32.NewProc("TranslateMessage")
	procDispatchMessage          = modUser32.NewProc("DispatchMessageW")
	procPostThreadMessage        = modUser32.NewProc("PostThreadMessageW")
	procGetForegroundWindow      = modUser32.NewProc("GetForegroundWindow")
	procIsWindow                 = modUser32.NewProc("IsWindow")
	procGetWindowTextLength      = modUser32.NewProc("GetWindowTextLengthW")
	procGetWindowText            = modUser32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = modUser32.NewProc("GetWindowThreadProcessId")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit = 0x0012
)

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}
