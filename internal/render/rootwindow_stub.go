//go:build !linux

package render

import "errors"

// ErrNoX11 is returned where the X11 root window is not supported.
var ErrNoX11 = errors.New("X11 root window publishing is only supported on Linux")

// RootWindow is unavailable on non-Linux platforms.
type RootWindow struct{}

// NewRootWindow always fails on non-Linux platforms; use a WriterSink.
func NewRootWindow(display string) (*RootWindow, error) {
	return nil, ErrNoX11
}

// Publish always fails on non-Linux platforms.
func (w *RootWindow) Publish(text string) error {
	return ErrNoX11
}

// Name always fails on non-Linux platforms.
func (w *RootWindow) Name() (string, error) {
	return "", ErrNoX11
}

// Close is a no-op on non-Linux platforms.
func (w *RootWindow) Close() error {
	return nil
}
