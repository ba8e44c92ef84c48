package capture

import "errors"

// ErrCaptureFailed indicates the server refused the capture or the
// drawable became invalid between resolution and grab. A window
// closing in that interval is inherent to window-targeted capture and
// is surfaced, not retried.
var ErrCaptureFailed = errors.New("capture failed")
