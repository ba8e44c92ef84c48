package display

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/logger"
)

// ErrServerUnavailable indicates the X server connection could not be
// established or has been lost. Nothing can proceed without it.
var ErrServerUnavailable = errors.New("x server unavailable")

// Display wraps a single X server connection shared by all components:
// the window directory, the pixel grabber and the clipboard session.
type Display struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
	root   xproto.Window

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// Connect opens a connection to the X server named by $DISPLAY.
func Connect() (*Display, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	logger.WithComponent("display").Debug().
		Uint32("root", uint32(screen.Root)).
		Uint8("root_depth", screen.RootDepth).
		Uint8("image_byte_order", setup.ImageByteOrder).
		Msg("Connected to X server")

	return &Display{
		conn:   conn,
		setup:  setup,
		screen: screen,
		root:   screen.Root,
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

// Conn returns the underlying X connection
func (d *Display) Conn() *xgb.Conn {
	return d.conn
}

// Root returns the root window
func (d *Display) Root() xproto.Window {
	return d.root
}

// Screen returns the screen info
func (d *Display) Screen() *xproto.ScreenInfo {
	return d.screen
}

// ImageByteOrder returns the server's image byte order
// (xproto.ImageOrderLSBFirst or xproto.ImageOrderMSBFirst).
func (d *Display) ImageByteOrder() byte {
	return d.setup.ImageByteOrder
}

// Close closes the X connection
func (d *Display) Close() {
	d.conn.Close()
}

// Atom interns an atom by name, creating it if necessary. Results are
// cached so repeated lookups cost one round trip total.
func (d *Display) Atom(name string) (xproto.Atom, error) {
	d.mu.Lock()
	if atom, ok := d.atoms[name]; ok {
		d.mu.Unlock()
		return atom, nil
	}
	d.mu.Unlock()

	reply, err := xproto.InternAtom(d.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}

	d.mu.Lock()
	d.atoms[name] = reply.Atom
	d.mu.Unlock()
	return reply.Atom, nil
}

// StringProperty gets a window property value as a string.
func (d *Display) StringProperty(win xproto.Window, atomName string) (string, error) {
	atom, err := d.Atom(atomName)
	if err != nil {
		return "", err
	}

	reply, err := xproto.GetProperty(
		d.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}

	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property %s", atomName)
	}

	return string(reply.Value), nil
}

// WindowProperty gets a raw window property value.
func (d *Display) WindowProperty(win xproto.Window, atomName string) ([]byte, error) {
	atom, err := d.Atom(atomName)
	if err != nil {
		return nil, err
	}

	reply, err := xproto.GetProperty(
		d.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// Geometry returns the current geometry of a drawable.
func (d *Display) Geometry(win xproto.Window) (config.Geometry, error) {
	geom, err := xproto.GetGeometry(d.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return config.Geometry{}, err
	}
	return config.Geometry{
		X:      int(geom.X),
		Y:      int(geom.Y),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}
