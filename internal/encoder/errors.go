package encoder

import "errors"

// ErrUnsupportedPixelLayout indicates the raw buffer's depth or
// channel order cannot be mapped to the requested output format.
var ErrUnsupportedPixelLayout = errors.New("unsupported pixel layout")

// ErrUnsupportedFormat indicates an output format the encoder does not
// produce.
var ErrUnsupportedFormat = errors.New("unsupported output format")
