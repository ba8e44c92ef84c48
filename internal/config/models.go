package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAmbiguousTarget indicates that more than one window selector was supplied.
var ErrAmbiguousTarget = errors.New("ambiguous target: name, class and id are mutually exclusive")

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
)

// ParseFormat normalizes a user-supplied format name. "jpg" is an alias
// for "jpeg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported format: %q (use png, jpeg, gif or bmp)", s)
	}
}

// MimeType returns the mime type served for this format, also used as
// the clipboard target atom name.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// TargetKind selects what the capture is aimed at.
type TargetKind int

const (
	// TargetWholeScreen captures the root window.
	TargetWholeScreen TargetKind = iota
	// TargetByName matches a window whose title contains a substring.
	TargetByName
	// TargetByClass matches a window whose WM_CLASS contains a substring.
	TargetByClass
	// TargetByID addresses a window by its X id.
	TargetByID
)

// Target identifies the window (or whole screen) to capture.
type Target struct {
	Kind  TargetKind
	Name  string
	Class string
	ID    uint32
}

// NewTarget builds a Target from the raw selector values the CLI
// collected. Exactly one selector may be set; none means whole screen.
func NewTarget(name, class string, id uint32, hasID bool) (Target, error) {
	set := 0
	if name != "" {
		set++
	}
	if class != "" {
		set++
	}
	if hasID {
		set++
	}
	if set > 1 {
		return Target{}, ErrAmbiguousTarget
	}

	switch {
	case name != "":
		return Target{Kind: TargetByName, Name: name}, nil
	case class != "":
		return Target{Kind: TargetByClass, Class: class}, nil
	case hasID:
		return Target{Kind: TargetByID, ID: id}, nil
	default:
		return Target{Kind: TargetWholeScreen}, nil
	}
}

// CaptureRequest is a fully-resolved capture order produced by the CLI
// (or the HTTP API) and consumed by the pipeline.
type CaptureRequest struct {
	Target Target

	// OffsetX/OffsetY position the top-left corner of the region inside
	// the target drawable. Default (0, 0).
	OffsetX int
	OffsetY int

	// Width/Height of the region. Zero means "natural size": from the
	// offset to the target's far edge.
	Width  int
	Height int

	Format Format

	// Scale is an optional resize factor applied before encoding.
	// Zero or one means no scaling.
	Scale float64

	// Delay is an optional pre-capture sleep, applied by the caller
	// between resolution and grab.
	Delay time.Duration
}

// HasSize reports whether an explicit region size was requested.
func (r *CaptureRequest) HasSize() bool {
	return r.Width != 0 || r.Height != 0
}

// Geometry represents window geometry in device pixels.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowInfo represents information about a window, cached for the
// duration of one resolution query.
type WindowInfo struct {
	ID       uint32   `json:"id"`
	Title    string   `json:"title"`
	Class    string   `json:"class"`
	Geometry Geometry `json:"geometry"`
}
