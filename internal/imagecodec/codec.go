// Package imagecodec converts image files between the encodings folio
// accepts. Decoding goes through imaging, which honors EXIF orientation;
// WebP output is produced by libwebp through go-webp.
package imagecodec

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp" // registers the webp decoder with image.Decode

	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Fixed encoder settings.
const (
	webpQuality = 80
	jpegQuality = 90
)

// Codec encodes into a single target format.
type Codec struct {
	format string
}

// New returns a Codec for one of the types.Format* values.
func New(format string) (*Codec, error) {
	switch f := strings.ToLower(format); f {
	case types.FormatWebP, types.FormatPNG:
		return &Codec{format: f}, nil
	case types.FormatJPEG, "jpg":
		return &Codec{format: types.FormatJPEG}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrFormatUnknown, format)
	}
}

// Format returns the target format name.
func (c *Codec) Format() string {
	return c.format
}

// Convert decodes src and atomically writes the re-encoded image to dst. A
// failed conversion never leaves a partial file at dst.
func (c *Codec) Convert(src, dst string) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	return fileutil.WriteAtomic(dst, perm, func(w io.Writer) error {
		return c.Encode(w, img)
	})
}

// Encode writes img to w in the codec's format.
func (c *Codec) Encode(w io.Writer, img image.Image) error {
	switch c.format {
	case types.FormatWebP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
		if err != nil {
			return fmt.Errorf("webp options: %w", err)
		}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		return nil
	case types.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case types.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	}
	return fmt.Errorf("%w: %q", types.ErrFormatUnknown, c.format)
}

// Decode reads an image file of any registered format, applying EXIF
// orientation.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
