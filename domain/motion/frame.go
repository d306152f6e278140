package motion

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	// Decoders for the formats camera drivers publish as CompressedImage.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when an inbound buffer cannot be turned into a
// non-empty Frame.
var ErrDecode = errors.New("frame decode failed")

// ErrEmptyFrame marks a zero-length image buffer. It is always reported
// together with ErrDecode.
var ErrEmptyFrame = errors.New("empty frame buffer")

// MaxFrameDimension is the largest width or height Decode accepts.
const MaxFrameDimension = 8192

// Frame is a decoded camera image. Frames are never mutated after creation.
type Frame struct {
	img    image.Image
	bounds image.Rectangle
}

// Decode turns an encoded image buffer into a Frame, rejecting images wider
// or taller than MaxFrameDimension.
func Decode(data []byte) (*Frame, error) {
	return DecodeLimited(data, MaxFrameDimension)
}

// DecodeLimited is Decode with a caller supplied dimension bound. The header
// is checked before any pixel memory is allocated. A non-positive maxDim
// selects MaxFrameDimension.
func DecodeLimited(data []byte, maxDim int) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyFrame)
	}
	if maxDim <= 0 {
		maxDim = MaxFrameDimension
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if hdr.Width > maxDim || hdr.Height > maxDim {
		return nil, fmt.Errorf("%w: image %dx%d exceeds %d pixels per side",
			ErrDecode, hdr.Width, hdr.Height, maxDim)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f, err := NewFrame(img)
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", format, err)
	}
	return f, nil
}

// NewFrame wraps an already decoded image.
func NewFrame(img image.Image) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDecode)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrDecode, b.Dx(), b.Dy())
	}
	return &Frame{img: img, bounds: b}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.bounds.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.bounds.Dy() }

// Image returns the underlying decoded image.
func (f *Frame) Image() image.Image { return f.img }

// at returns the pixel at frame-relative coordinates as 8-bit RGBA.
func (f *Frame) at(x, y int) color.RGBA {
	return color.RGBAModel.Convert(f.img.At(f.bounds.Min.X+x, f.bounds.Min.Y+y)).(color.RGBA)
}

// rgb returns the channels at frame-relative coordinates scaled to [0, 1].
func (f *Frame) rgb(x, y int) (r, g, b float64) {
	cr, cg, cb, _ := f.img.At(f.bounds.Min.X+x, f.bounds.Min.Y+y).RGBA()
	return float64(cr) / 0xffff, float64(cg) / 0xffff, float64(cb) / 0xffff
}

func (f *Frame) sameSize(o *Frame) bool {
	return f.Width() == o.Width() && f.Height() == o.Height()
}
