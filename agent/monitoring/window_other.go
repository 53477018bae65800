//go:build !windows

package monitoring

import "errors"

type unsupportedWindowSource struct{}

// NewSystemWindowSource returns a source that never observes a focused
// window on platforms without a Win32 desktop.
func NewSystemWindowSource() WindowSource {
	return unsupportedWindowSource{}
}

func (unsupportedWindowSource) Foreground() WindowID { return NoWindow }

func (unsupportedWindowSource) Title(WindowID) (string, error) {
	return "", errors.ErrUnsupported
}

func (unsupportedWindowSource) ProcessName(WindowID) (string, error) {
	return "", errors.ErrUnsupported
}
