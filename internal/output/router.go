// Package output decides where encoded bytes go: the clipboard when
// the tool runs interactively, stdout when it is piped or redirected.
package output

import (
	"fmt"
	"io"

	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/logger"
)

// Publisher takes ownership of the encoded bytes and serves them to
// clipboard consumers until ownership is lost.
type Publisher interface {
	Publish(img *encoder.EncodedImage) error
}

// Router dispatches an encoded image to exactly one sink.
type Router struct {
	Stdout    io.Writer
	Clipboard Publisher
}

// Route hands the image to the clipboard publisher when interactive,
// otherwise writes the bytes verbatim to stdout.
func (r *Router) Route(img *encoder.EncodedImage, interactive bool) error {
	if !interactive {
		logger.WithComponent("output").Debug().
			Int("bytes", len(img.Bytes)).
			Str("format", string(img.Format)).
			Msg("Writing image to stdout")
		if _, err := r.Stdout.Write(img.Bytes); err != nil {
			return fmt.Errorf("failed to write image to stdout: %w", err)
		}
		return nil
	}

	logger.WithComponent("output").Debug().
		Int("bytes", len(img.Bytes)).
		Str("format", string(img.Format)).
		Msg("Publishing image to clipboard")
	return r.Clipboard.Publish(img)
}
