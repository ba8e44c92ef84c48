package window

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
)

// X11Source implements TreeSource against a live X connection.
type X11Source struct {
	d *display.Display
}

// NewX11Source creates a tree source over an X display
func NewX11Source(d *display.Display) *X11Source {
	return &X11Source{d: d}
}

// Root returns the root window id
func (s *X11Source) Root() uint32 {
	return uint32(s.d.Root())
}

// ClientList returns the top-level clients from _NET_CLIENT_LIST.
func (s *X11Source) ClientList() ([]uint32, error) {
	value, err := s.d.WindowProperty(s.d.Root(), "_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST: %w", err)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("_NET_CLIENT_LIST is empty")
	}

	// Array of 32-bit window ids, little-endian on the wire.
	windows := make([]uint32, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		windows = append(windows, uint32(value[i])|
			uint32(value[i+1])<<8|
			uint32(value[i+2])<<16|
			uint32(value[i+3])<<24)
	}
	return windows, nil
}

// Children returns the direct children of a window via QueryTree.
func (s *X11Source) Children(id uint32) ([]uint32, error) {
	tree, err := xproto.QueryTree(s.d.Conn(), xproto.Window(id)).Reply()
	if err != nil {
		return nil, err
	}
	children := make([]uint32, len(tree.Children))
	for i, child := range tree.Children {
		children[i] = uint32(child)
	}
	return children, nil
}

// Title returns the window title. _NET_WM_NAME is preferred because
// WM_NAME is frequently blank under EWMH window managers.
func (s *X11Source) Title(id uint32) (string, error) {
	win := xproto.Window(id)
	if title, err := s.d.StringProperty(win, "_NET_WM_NAME"); err == nil {
		return title, nil
	}
	return s.d.StringProperty(win, "WM_NAME")
}

// Class returns the window class. WM_CLASS holds two NUL-terminated
// strings, instance then class; the class is the interesting one.
func (s *X11Source) Class(id uint32) (string, error) {
	raw, err := s.d.StringProperty(xproto.Window(id), "WM_CLASS")
	if err != nil {
		return "", err
	}

	parts := strings.Split(raw, "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1], nil
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0], nil
	}
	return "", fmt.Errorf("empty WM_CLASS")
}

// Geometry returns the window's current geometry
func (s *X11Source) Geometry(id uint32) (config.Geometry, error) {
	return s.d.Geometry(xproto.Window(id))
}
