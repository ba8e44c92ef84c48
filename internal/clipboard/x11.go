package clipboard

import (
	"fmt"
	"io"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/ashwalker/xsnap/internal/display"
)

// X11Conn implements Conn against a live X connection.
type X11Conn struct {
	d *display.Display
}

// NewX11Conn creates a selection connection over an X display
func NewX11Conn(d *display.Display) *X11Conn {
	return &X11Conn{d: d}
}

// CreateOwnerWindow creates a 1x1 InputOnly child of the root window.
// It is never mapped; it exists only to hold selection ownership.
func (c *X11Conn) CreateOwnerWindow() (uint32, error) {
	wid, err := xproto.NewWindowId(c.d.Conn())
	if err != nil {
		return 0, err
	}

	err = xproto.CreateWindowChecked(
		c.d.Conn(),
		0, // depth: copy from parent
		wid,
		c.d.Root(),
		0, 0, 1, 1,
		0, // border width
		xproto.WindowClassInputOnly,
		0, // visual: copy from parent
		0,
		[]uint32{},
	).Check()
	if err != nil {
		return 0, err
	}
	return uint32(wid), nil
}

// SetSelectionOwner asserts selection ownership for the owner window
func (c *X11Conn) SetSelectionOwner(owner, selection uint32) error {
	return xproto.SetSelectionOwnerChecked(
		c.d.Conn(),
		xproto.Window(owner),
		xproto.Atom(selection),
		xproto.TimeCurrentTime,
	).Check()
}

// SelectionOwner returns the current owner of a selection
func (c *X11Conn) SelectionOwner(selection uint32) (uint32, error) {
	reply, err := xproto.GetSelectionOwner(c.d.Conn(), xproto.Atom(selection)).Reply()
	if err != nil {
		return 0, err
	}
	return uint32(reply.Owner), nil
}

// ChangeProperty replaces a property on a foreign window with data
func (c *X11Conn) ChangeProperty(window, property, typ uint32, format byte, data []byte) error {
	dataLen := uint32(len(data))
	if format == 32 {
		dataLen /= 4
	} else if format == 16 {
		dataLen /= 2
	}
	return xproto.ChangePropertyChecked(
		c.d.Conn(),
		xproto.PropModeReplace,
		xproto.Window(window),
		xproto.Atom(property),
		xproto.Atom(typ),
		format,
		dataLen,
		data,
	).Check()
}

// NotifySelection sends a SelectionNotify event to the requestor
func (c *X11Conn) NotifySelection(n Notify) error {
	ev := xproto.SelectionNotifyEvent{
		Time:      xproto.Timestamp(n.Time),
		Requestor: xproto.Window(n.Requestor),
		Selection: xproto.Atom(n.Selection),
		Target:    xproto.Atom(n.Target),
		Property:  xproto.Atom(n.Property),
	}
	return xproto.SendEventChecked(
		c.d.Conn(),
		false,
		xproto.Window(n.Requestor),
		0, // empty event mask
		string(ev.Bytes()),
	).Check()
}

// DestroyWindow destroys the owner window, reverting the selection
func (c *X11Conn) DestroyWindow(window uint32) error {
	return xproto.DestroyWindowChecked(c.d.Conn(), xproto.Window(window)).Check()
}

// Atom interns an atom by name
func (c *X11Conn) Atom(name string) (uint32, error) {
	atom, err := c.d.Atom(name)
	if err != nil {
		return 0, err
	}
	return uint32(atom), nil
}

// WaitForEvent blocks for the next X event and decodes the selection
// events the session cares about. Protocol errors from the server are
// surfaced as UnknownEvent so the loop can ignore them.
func (c *X11Conn) WaitForEvent() (Event, error) {
	ev, xerr := c.d.Conn().WaitForEvent()
	if ev == nil && xerr == nil {
		return nil, fmt.Errorf("x connection closed: %w", io.EOF)
	}
	if xerr != nil {
		return UnknownEvent{Description: xerr.Error()}, nil
	}

	switch ev := ev.(type) {
	case xproto.SelectionRequestEvent:
		return RequestEvent{
			Time:      uint32(ev.Time),
			Requestor: uint32(ev.Requestor),
			Selection: uint32(ev.Selection),
			Target:    uint32(ev.Target),
			Property:  uint32(ev.Property),
		}, nil
	case xproto.SelectionClearEvent:
		return ClearEvent{Selection: uint32(ev.Selection)}, nil
	default:
		return UnknownEvent{Description: fmt.Sprintf("%T", ev)}, nil
	}
}
