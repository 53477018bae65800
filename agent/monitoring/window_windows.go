//go:build windows

package monitoring

import (
	"errors"
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var errWindowGone = errors.New("window no longer exists")

type systemWindowSource struct{}

// NewSystemWindowSource resolves focus through user32.
func NewSystemWindowSource() WindowSource {
	return systemWindowSource{}
}

func (systemWindowSource) Foreground() WindowID {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return WindowID(hwnd)
}

func (systemWindowSource) Title(id WindowID) (string, error) {
	if !isWindow(id) {
		return "", errWindowGone
	}

	n, _, _ := procGetWindowTextLength.Call(uintptr(id))
	if n == 0 {
		return "", nil
	}

	buf := make([]uint16, n+1)
	ret, _, err := procGetWindowText.Call(uintptr(id), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		if !isWindow(id) {
			return "", errWindowGone
		}
		return "", fmt.Errorf("GetWindowText: %w", err)
	}
	return windows.UTF16ToString(buf[:ret]), nil
}

func (systemWindowSource) ProcessName(id WindowID) (string, error) {
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(id), uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", errWindowGone
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	defer windows.CloseHandle(h)

	var exePath [windows.MAX_PATH]uint16
	size := uint32(len(exePath))
	if err := windows.QueryFullProcessImageName(h, 0, &exePath[0], &size); err != nil {
		return "", fmt.Errorf("QueryFullProcessImageName(%d): %w", pid, err)
	}
	return filepath.Base(windows.UTF16ToString(exePath[:size])), nil
}

func isWindow(id WindowID) bool {
	ret, _, _ := procIsWindow.Call(uintptr(id))
	return ret != 0
}
