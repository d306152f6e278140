package motion

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, solidImage(32, 16, color.RGBA{R: 10, G: 20, B: 30, A: 255}))

	f, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 32, f.Width())
	assert.Equal(t, 16, f.Height())
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, f.at(5, 5))
}

func TestDecodeEmptyBuffer(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG and fixes up the
// chunk CRC so the header still parses.
func withPNGSize(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	// 8 byte signature, 4 byte length, then "IHDR".
	ihdr := out[8+4 : 8+4+4+13]
	binary.BigEndian.PutUint32(ihdr[4:8], w)
	binary.BigEndian.PutUint32(ihdr[8:12], h)
	binary.BigEndian.PutUint32(out[8+4+4+13:], crc32.ChecksumIEEE(ihdr))
	return out
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	data := withPNGSize(encodePNG(t, solidImage(4, 4, color.RGBA{A: 255})), 100000, 100000)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 100000, cfg.Width)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "100000x100000")
}

func TestDecodeLimited(t *testing.T) {
	data := encodePNG(t, solidImage(32, 16, color.RGBA{A: 255}))

	_, err := DecodeLimited(data, 16)
	assert.ErrorIs(t, err, ErrDecode)

	f, err := DecodeLimited(data, 32)
	require.NoError(t, err)
	assert.Equal(t, 32, f.Width())

	f, err = DecodeLimited(data, 0)
	require.NoError(t, err)
	assert.Equal(t, 16, f.Height())
}

func TestNewFrameRejectsEmptyImage(t *testing.T) {
	_, err := NewFrame(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = NewFrame(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFrameOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 20, 20))
	img.SetRGBA(10, 10, color.RGBA{R: 255, A: 255})

	f, err := NewFrame(img)
	require.NoError(t, err)

	r, g, b := f.rgb(0, 0)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, 0.0, b)
}
