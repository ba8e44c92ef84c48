package commands

import (
	"errors"

	"github.com/ashwalker/xsnap/internal/capture"
	"github.com/ashwalker/xsnap/internal/clipboard"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/region"
	"github.com/ashwalker/xsnap/internal/window"
)

// Exit codes, one per fatal error class so scripts can tell the
// failures apart.
const (
	exitFailure           = 1
	exitAmbiguousTarget   = 2
	exitTargetNotFound    = 3
	exitInvalidRegion     = 4
	exitCaptureFailed     = 5
	exitUnsupportedFormat = 6
	exitOwnershipDenied   = 7
	exitServerUnavailable = 8
)

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrAmbiguousTarget):
		return exitAmbiguousTarget
	case errors.Is(err, window.ErrTargetNotFound):
		return exitTargetNotFound
	case errors.Is(err, region.ErrInvalidRegion):
		return exitInvalidRegion
	case errors.Is(err, capture.ErrCaptureFailed):
		return exitCaptureFailed
	case errors.Is(err, encoder.ErrUnsupportedPixelLayout),
		errors.Is(err, encoder.ErrUnsupportedFormat):
		return exitUnsupportedFormat
	case errors.Is(err, clipboard.ErrOwnershipDenied):
		return exitOwnershipDenied
	case errors.Is(err, display.ErrServerUnavailable):
		return exitServerUnavailable
	default:
		return exitFailure
	}
}
