package capture

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/ashwalker/xsnap/internal/display"
)

// X11Source implements ImageSource against a live X connection.
type X11Source struct {
	d *display.Display
}

// NewX11Source creates an image source over an X display
func NewX11Source(d *display.Display) *X11Source {
	return &X11Source{d: d}
}

// GetImage captures a rectangle of a drawable as zpixmap data.
func (s *X11Source) GetImage(drawable uint32, x, y, width, height int) ([]byte, byte, error) {
	reply, err := xproto.GetImage(
		s.d.Conn(),
		xproto.ImageFormatZPixmap,
		xproto.Drawable(drawable),
		int16(x), int16(y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, 0, err
	}
	return reply.Data, reply.Depth, nil
}

// ByteOrder returns the server's image byte order
func (s *X11Source) ByteOrder() ByteOrder {
	if s.d.ImageByteOrder() == xproto.ImageOrderMSBFirst {
		return MSBFirst
	}
	return LSBFirst
}
