package api

import (
	"github.com/golang/geo/r3"
	"github.com/open-teleop/console/domain/particles"
)

// --- Data Structures for WebSocket Messages ---

// ControlAck is written back on the control socket after each input sample.
type ControlAck struct {
	Throttle      float64   `json:"throttle"`
	MotionEnabled bool      `json:"motion_enabled"`
	Axes          []float32 `json:"axes"`
	Buttons       []int32   `json:"buttons"`
	Error         string    `json:"error,omitempty"`
}

// ParticleFrame is the CBOR frame streamed to point cloud viewers. Color and
// PosScale hold four floats per texel, row-major.
type ParticleFrame struct {
	Seq      uint64    `cbor:"seq"`
	Width    int       `cbor:"width"`
	Height   int       `cbor:"height"`
	Count    int       `cbor:"count"`
	Scale    float32   `cbor:"scale"`
	Color    []float32 `cbor:"color"`
	PosScale []float32 `cbor:"pos_scale"`
}

// NewParticleFrame copies a packed buffer into a frame.
func NewParticleFrame(seq uint64, buf *particles.PackedBuffer) ParticleFrame {
	return ParticleFrame{
		Seq:      seq,
		Width:    buf.Width,
		Height:   buf.Height,
		Count:    buf.Count,
		Scale:    buf.Scale,
		Color:    buf.Color,
		PosScale: buf.PosScale,
	}
}

// MeshRequest replaces the scan view with a static vertex cloud.
type MeshRequest struct {
	Vertices [][3]float64 `json:"vertices"`
}

func (r MeshRequest) vectors() []r3.Vector {
	out := make([]r3.Vector, len(r.Vertices))
	for i, v := range r.Vertices {
		out[i] = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	}
	return out
}
