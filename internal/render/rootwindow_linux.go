//go:build linux

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// RootWindow publishes status text as the name of the X11 root window,
// which is where dwm reads its status bar from.
// It caches the X11 connection and atoms for efficiency.
type RootWindow struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewRootWindow connects to display. An empty display uses $DISPLAY.
func NewRootWindow(display string) (*RootWindow, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to open X display %q: %w", display, err)
	}

	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		conn.Close()
		return nil, errors.New("X server reported no screens")
	}

	return &RootWindow{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom),
	}, nil
}

// Publish sets WM_NAME to text as raw bytes, like XStoreName, and
// _NET_WM_NAME as UTF8_STRING for EWMH-aware bars.
func (w *RootWindow) Publish(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return errors.New("root window publisher is closed")
	}

	data := []byte(text)
	err := xproto.ChangePropertyChecked(w.conn, xproto.PropModeReplace, w.root,
		xproto.AtomWmName, xproto.AtomString, 8, uint32(len(data)), data).Check()
	if err != nil {
		return fmt.Errorf("failed to set WM_NAME: %w", err)
	}

	netName, err := w.getAtom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8, err := w.getAtom("UTF8_STRING")
	if err != nil {
		return err
	}
	err = xproto.ChangePropertyChecked(w.conn, xproto.PropModeReplace, w.root,
		netName, utf8, 8, uint32(len(data)), data).Check()
	if err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	return nil
}

// Name reads WM_NAME back from the root window.
func (w *RootWindow) Name() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return "", errors.New("root window publisher is closed")
	}

	reply, err := xproto.GetProperty(w.conn, false, w.root, xproto.AtomWmName,
		xproto.AtomString, 0, 1<<16).Reply()
	if err != nil {
		return "", fmt.Errorf("failed to read WM_NAME: %w", err)
	}
	return string(reply.Value), nil
}

// getAtom retrieves or interns an X11 atom by name.
func (w *RootWindow) getAtom(name string) (xproto.Atom, error) {
	if atom, ok := w.atoms[name]; ok {
		return atom, nil
	}

	reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}

	w.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// Close releases the X11 connection. It is safe to call more than once.
func (w *RootWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.atoms = make(map[string]xproto.Atom)
	return nil
}
