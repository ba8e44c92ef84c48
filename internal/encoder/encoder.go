// Package encoder converts raw capture buffers into encoded image
// bytes. Encoding is deterministic: the same buffer, format and
// options always produce byte-identical output, since none of the
// encoders embed timestamps or metadata.
//
// GIF output is lossy: the image is quantized to the Plan 9 color
// palette with Floyd-Steinberg error diffusion (the image/gif default
// path), which is itself deterministic.
package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/ashwalker/xsnap/internal/capture"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
)

// DefaultJPEGQuality is used when the caller passes no quality.
const DefaultJPEGQuality = 50

// EncodedImage is the immutable result of encoding a capture.
type EncodedImage struct {
	Format config.Format
	Bytes  []byte
}

// Options tune the encoding step.
type Options struct {
	// JPEGQuality in 1-100; zero means DefaultJPEGQuality.
	JPEGQuality int
	// Scale resizes the image by the given factor before encoding.
	// Zero or one leaves the image untouched.
	Scale float64
}

// Encode converts a raw pixel buffer into bytes of the requested
// format.
func Encode(buf *capture.PixelBuffer, format config.Format, opts Options) (*EncodedImage, error) {
	rgba, err := ToRGBA(buf)
	if err != nil {
		return nil, err
	}

	var img image.Image = rgba
	if opts.Scale > 0 && opts.Scale != 1 {
		width := uint(float64(buf.Width) * opts.Scale)
		height := uint(float64(buf.Height) * opts.Scale)
		if width == 0 || height == 0 {
			return nil, fmt.Errorf("scale %v collapses %dx%d image to nothing",
				opts.Scale, buf.Width, buf.Height)
		}
		img = resize.Resize(width, height, rgba, resize.Lanczos3)
	}

	quality := opts.JPEGQuality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}

	var out bytes.Buffer
	switch format {
	case config.FormatPNG:
		err = png.Encode(&out, img)
	case config.FormatJPEG:
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality})
	case config.FormatGIF:
		err = gif.Encode(&out, img, nil)
	case config.FormatBMP:
		err = bmp.Encode(&out, img)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	return &EncodedImage{Format: format, Bytes: out.Bytes()}, nil
}

// ToRGBA normalizes a raw zpixmap buffer to RGBA. Only 4-byte pixels
// at depth 24 or 32 are supported: LSB-first servers deliver BGRX,
// MSB-first servers XRGB. The X/alpha byte from the server is always
// zero, so alpha is forced opaque.
func ToRGBA(buf *capture.PixelBuffer) (*image.RGBA, error) {
	if buf.BytesPerPixel != 4 || (buf.Depth != 24 && buf.Depth != 32) {
		return nil, fmt.Errorf("%w: depth %d with %d bytes per pixel",
			ErrUnsupportedPixelLayout, buf.Depth, buf.BytesPerPixel)
	}

	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	n := buf.Width * buf.Height * 4
	if len(buf.Data) < n {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d image",
			ErrUnsupportedPixelLayout, len(buf.Data), buf.Width, buf.Height)
	}

	src := buf.Data
	dst := img.Pix
	switch buf.Order {
	case capture.MSBFirst:
		for i := 0; i < n; i += 4 {
			dst[i] = src[i+1]
			dst[i+1] = src[i+2]
			dst[i+2] = src[i+3]
			dst[i+3] = 0xff
		}
	default: // LSBFirst
		for i := 0; i < n; i += 4 {
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = 0xff
		}
	}

	return img, nil
}
