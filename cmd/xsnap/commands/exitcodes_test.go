package commands

import (
	"fmt"
	"testing"

	"github.com/ashwalker/xsnap/internal/capture"
	"github.com/ashwalker/xsnap/internal/clipboard"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/region"
	"github.com/ashwalker/xsnap/internal/window"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "ambiguous target", err: config.ErrAmbiguousTarget, want: exitAmbiguousTarget},
		{name: "target not found", err: window.ErrTargetNotFound, want: exitTargetNotFound},
		{name: "invalid region", err: region.ErrInvalidRegion, want: exitInvalidRegion},
		{name: "capture failed", err: capture.ErrCaptureFailed, want: exitCaptureFailed},
		{name: "unsupported pixel layout", err: encoder.ErrUnsupportedPixelLayout, want: exitUnsupportedFormat},
		{name: "unsupported format", err: encoder.ErrUnsupportedFormat, want: exitUnsupportedFormat},
		{name: "ownership denied", err: clipboard.ErrOwnershipDenied, want: exitOwnershipDenied},
		{name: "server unavailable", err: display.ErrServerUnavailable, want: exitServerUnavailable},
		{name: "anything else", err: fmt.Errorf("boom"), want: exitFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Errors arrive wrapped with context by the time Execute
			// sees them.
			wrapped := fmt.Errorf("capture failed: %w", tc.err)
			if got := exitCode(wrapped); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", wrapped, got, tc.want)
			}
		})
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{
		exitFailure,
		exitAmbiguousTarget,
		exitTargetNotFound,
		exitInvalidRegion,
		exitCaptureFailed,
		exitUnsupportedFormat,
		exitOwnershipDenied,
		exitServerUnavailable,
	}
	seen := make(map[int]bool)
	for _, code := range codes {
		if seen[code] {
			t.Fatalf("exit code %d used twice", code)
		}
		seen[code] = true
	}
}
