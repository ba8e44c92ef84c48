package region

import (
	"fmt"

	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/logger"
)

// Rectangle is a capture rectangle in device pixels, relative to the
// top-left corner of its drawable. Width and height are always
// positive after resolution.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Target couples the drawable to capture with the rectangle inside it.
type Target struct {
	Drawable uint32
	Window   *config.WindowInfo
	Rect     Rectangle
}

// Lookup is the slice of the window directory the resolver needs.
type Lookup interface {
	RootWindow() (*config.WindowInfo, error)
	FindByName(substr string) (*config.WindowInfo, error)
	FindByClass(substr string) (*config.WindowInfo, error)
	FindByID(id uint32) (*config.WindowInfo, error)
}

// Resolve turns a capture request into a concrete rectangle on a
// concrete drawable.
//
// Policy: with no explicit size the rectangle runs from the offset to
// the target's far edge; an explicit size that partially overhangs the
// target is clamped; a rectangle that falls entirely outside the
// target is ErrInvalidRegion.
func Resolve(req *config.CaptureRequest, dir Lookup) (*Target, error) {
	win, err := lookupTarget(&req.Target, dir)
	if err != nil {
		return nil, err
	}

	bounds := win.Geometry
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("%w: target %#x has no area", ErrInvalidRegion, win.ID)
	}

	width := req.Width
	height := req.Height
	if !req.HasSize() {
		width = bounds.Width - req.OffsetX
		height = bounds.Height - req.OffsetY
	}

	rect, ok := clamp(req.OffsetX, req.OffsetY, width, height, bounds.Width, bounds.Height)
	if !ok {
		return nil, fmt.Errorf("%w: offset (%d, %d) size %dx%d against %dx%d target",
			ErrInvalidRegion, req.OffsetX, req.OffsetY, width, height, bounds.Width, bounds.Height)
	}

	logger.WithComponent("region").Debug().
		Uint32("drawable", win.ID).
		Int("x", rect.X).
		Int("y", rect.Y).
		Int("width", rect.Width).
		Int("height", rect.Height).
		Msg("Resolved capture region")

	return &Target{Drawable: win.ID, Window: win, Rect: rect}, nil
}

// lookupTarget resolves the selector against the directory. Directory
// misses surface as window.ErrTargetNotFound unchanged.
func lookupTarget(t *config.Target, dir Lookup) (*config.WindowInfo, error) {
	switch t.Kind {
	case config.TargetByName:
		return dir.FindByName(t.Name)
	case config.TargetByClass:
		return dir.FindByClass(t.Class)
	case config.TargetByID:
		return dir.FindByID(t.ID)
	default:
		return dir.RootWindow()
	}
}

// clamp intersects the requested rectangle with the drawable bounds.
// Returns false when the intersection is empty.
func clamp(x, y, w, h, boundsW, boundsH int) (Rectangle, bool) {
	x2 := x + w
	y2 := y + h

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x2 > boundsW {
		x2 = boundsW
	}
	if y2 > boundsH {
		y2 = boundsH
	}

	if x2 <= x || y2 <= y {
		return Rectangle{}, false
	}
	return Rectangle{X: x, Y: y, Width: x2 - x, Height: y2 - y}, true
}
