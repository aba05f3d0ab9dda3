// Package imaging decodes source photos, cuts face regions out of them and
// encodes the result as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
)

const DefaultJPEGQuality = 90

var (
	// ErrInvalidImage indicates bytes that no registered decoder accepts
	ErrInvalidImage = errors.New("invalid or unsupported image")

	// ErrBoxOutOfBounds indicates a crop box that is not fully inside the image
	ErrBoxOutOfBounds = errors.New("bounding box outside image bounds")
)

// Photo is a source photo kept both as raw bytes and decoded pixels.
// Remote detectors take the bytes, crop and bounds checks use the pixels.
type Photo struct {
	Data   []byte
	Image  image.Image
	Format string
}

// Width returns the pixel width of the decoded image
func (p *Photo) Width() int {
	return p.Image.Bounds().Dx()
}

// Height returns the pixel height of the decoded image
func (p *Photo) Height() int {
	return p.Image.Bounds().Dy()
}

// Decode parses raw photo bytes. JPEG, PNG, GIF, BMP, TIFF and WebP are accepted.
func Decode(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return &Photo{Data: data, Image: img, Format: format}, nil
}

// Crop copies the box region into a new image whose bounds start at (0,0).
// Boxes that are not fully inside the photo are rejected, never clamped.
func Crop(p *Photo, box domain.BoundingBox) (image.Image, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if !box.Fits(p.Width(), p.Height()) {
		return nil, fmt.Errorf("%w: box %s, image %dx%d", ErrBoxOutOfBounds, box, p.Width(), p.Height())
	}

	// box is relative to the image origin, which is not always (0,0)
	origin := p.Image.Bounds().Min
	src := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height).Add(origin)

	dst := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	draw.Copy(dst, image.Point{}, p.Image, src, draw.Src, nil)

	return dst, nil
}

// EncodeJPEG encodes img as JPEG. Quality outside 1..100 falls back to the default.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// CropJPEG crops the box out of the photo and returns it JPEG-encoded
func CropJPEG(p *Photo, box domain.BoundingBox, quality int) ([]byte, error) {
	face, err := Crop(p, box)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(face, quality)
}
