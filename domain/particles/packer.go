package particles

// DefaultMaxRowWidth bounds the packed texture width and height.
const DefaultMaxRowWidth = 2048

// MaxRowWidthLimit is the largest row width Pack honours. Larger values are
// clamped to it.
const MaxRowWidthLimit = 16384

// texelSize is the number of float32 values per texel (RGBA).
const texelSize = 4

// PackedBuffer holds two RGBA float rasters of identical size. Texel
// x + y*Width of each raster belongs to point index x + y*Width; texels at or
// beyond Count were never written and must not be read.
type PackedBuffer struct {
	Width  int
	Height int
	// Count is the number of points handed to Pack, which may exceed
	// Width*Height.
	Count int
	// Scale is the uniform particle scale written into PosScale.
	Scale float32
	// Color holds R, G, B, A per texel.
	Color []float32
	// PosScale holds X, Y, Z, Scale per texel.
	PosScale []float32
}

// Written returns the number of texels that carry point data.
func (b *PackedBuffer) Written() int {
	return min(b.Count, b.Width*b.Height)
}

// Empty reports whether the buffer carries no particles.
func (b *PackedBuffer) Empty() bool {
	return b.Count == 0
}

// ColorAt returns the color texel at linear index i.
func (b *PackedBuffer) ColorAt(i int) Color {
	o := i * texelSize
	return Color{R: b.Color[o], G: b.Color[o+1], B: b.Color[o+2], A: b.Color[o+3]}
}

// PosScaleAt returns the position and scale texel at linear index i.
func (b *PackedBuffer) PosScaleAt(i int) (x, y, z, scale float32) {
	o := i * texelSize
	return b.PosScale[o], b.PosScale[o+1], b.PosScale[o+2], b.PosScale[o+3]
}

// Packer packs point lists into PackedBuffers.
type Packer struct {
	MaxRowWidth uint
	Scale       float32
}

// NewPacker returns a Packer; a zero maxRowWidth selects DefaultMaxRowWidth.
func NewPacker(maxRowWidth uint, scale float32) *Packer {
	if maxRowWidth == 0 {
		maxRowWidth = DefaultMaxRowWidth
	}
	return &Packer{MaxRowWidth: maxRowWidth, Scale: scale}
}

// Pack writes points row-major into a new buffer.
//
// Width is min(len(points), MaxRowWidth) and Height is
// clamp(len(points)/MaxRowWidth, 1, MaxRowWidth). When the point count is not
// a multiple of the row width the trailing points do not fit and are dropped;
// renderers rely on these exact dimensions so the truncation is kept. An
// empty list yields a 1x1 buffer with Count 0.
func (p *Packer) Pack(points []Point) *PackedBuffer {
	return Pack(points, p.MaxRowWidth, p.Scale)
}

// Pack is the functional form of Packer.Pack.
func Pack(points []Point, maxRowWidth uint, scale float32) *PackedBuffer {
	if maxRowWidth == 0 {
		maxRowWidth = DefaultMaxRowWidth
	}
	if maxRowWidth > MaxRowWidthLimit {
		maxRowWidth = MaxRowWidthLimit
	}
	n := len(points)
	limit := int(maxRowWidth)

	width := max(min(n, limit), 1)
	height := min(max(n/limit, 1), limit)

	buf := &PackedBuffer{
		Width:    width,
		Height:   height,
		Count:    n,
		Scale:    scale,
		Color:    make([]float32, width*height*texelSize),
		PosScale: make([]float32, width*height*texelSize),
	}

	written := buf.Written()
	for i := 0; i < written; i++ {
		pt := points[i]
		o := i * texelSize

		buf.Color[o] = pt.Color.R
		buf.Color[o+1] = pt.Color.G
		buf.Color[o+2] = pt.Color.B
		buf.Color[o+3] = pt.Color.A

		buf.PosScale[o] = float32(pt.Position.X)
		buf.PosScale[o+1] = float32(pt.Position.Y)
		buf.PosScale[o+2] = float32(pt.Position.Z)
		buf.PosScale[o+3] = scale
	}
	return buf
}
