package region

import "errors"

// ErrInvalidRegion indicates the requested offset and size place the
// capture rectangle entirely outside the target drawable.
var ErrInvalidRegion = errors.New("capture region lies outside the target")
