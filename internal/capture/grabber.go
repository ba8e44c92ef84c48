package capture

import (
	"fmt"

	"github.com/ashwalker/xsnap/internal/logger"
	"github.com/ashwalker/xsnap/internal/region"
)

// ByteOrder is the server's image byte order for zpixmap data.
type ByteOrder int

const (
	// LSBFirst means 32-bit pixels arrive as B, G, R, X bytes.
	LSBFirst ByteOrder = iota
	// MSBFirst means 32-bit pixels arrive as X, R, G, B bytes.
	MSBFirst
)

// PixelBuffer is a raw capture: zpixmap bytes plus enough layout
// information for the encoder to interpret them. It is never mutated
// after creation.
type PixelBuffer struct {
	Data          []byte
	Width         int
	Height        int
	Depth         int
	BytesPerPixel int
	Order         ByteOrder
}

// ImageSource issues the GetImage round trip. The real implementation
// talks to the X server; tests return canned pixel data.
type ImageSource interface {
	GetImage(drawable uint32, x, y, width, height int) (data []byte, depth byte, err error)
	ByteOrder() ByteOrder
}

// Grabber pulls raw pixel data for a resolved region.
type Grabber struct {
	src ImageSource
}

// NewGrabber creates a grabber over an image source
func NewGrabber(src ImageSource) *Grabber {
	return &Grabber{src: src}
}

// Grab captures the target rectangle and returns the raw pixels. The
// only server interaction is one read-only GetImage round trip.
func (g *Grabber) Grab(t *region.Target) (*PixelBuffer, error) {
	rect := t.Rect
	data, depth, err := g.src.GetImage(t.Drawable, rect.X, rect.Y, rect.Width, rect.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	pixels := rect.Width * rect.Height
	if pixels == 0 || len(data)%pixels != 0 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d region",
			ErrCaptureFailed, len(data), rect.Width, rect.Height)
	}

	buf := &PixelBuffer{
		Data:          data,
		Width:         rect.Width,
		Height:        rect.Height,
		Depth:         int(depth),
		BytesPerPixel: len(data) / pixels,
		Order:         g.src.ByteOrder(),
	}

	logger.WithComponent("capture").Debug().
		Uint32("drawable", t.Drawable).
		Int("width", buf.Width).
		Int("height", buf.Height).
		Int("depth", buf.Depth).
		Int("bytes_per_pixel", buf.BytesPerPixel).
		Msg("Captured region")

	return buf, nil
}
