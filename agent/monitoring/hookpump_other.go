//go:build !windows

package monitoring

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedHookPump struct{}

// NewSystemHookPump returns a pump that fails on platforms without
// low-level input hooks.
func NewSystemHookPump() HookPump {
	return unsupportedHookPump{}
}

func (unsupportedHookPump) Run(ctx context.Context, d *Dispatcher, ready func()) error {
	return fmt.Errorf("%w: %w on %s", ErrHookInstall, ErrUnsupported, runtime.GOOS)
}
