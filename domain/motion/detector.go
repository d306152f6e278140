// Package motion detects visual motion between successive camera frames.
//
// Detection is a pure function: the carried state (previous frame, last
// alert time, last mechanical motion time) goes in and the updated state
// comes out, so the caller owns every bit of it.
package motion

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"time"
)

// HotColor marks a sampled pixel whose color changed beyond the threshold.
var HotColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Rand is the random source used to pick an alert message.
type Rand interface {
	Intn(n int) int
}

// Config holds the detector settings.
type Config struct {
	// Stride is the sampling step in both axes.
	Stride int
	// PixelThreshold is the largest per-channel delta, in [0, 1], a sampled
	// pixel may show before it counts as hot.
	PixelThreshold float64
	// HotPixelThreshold is the hot pixel count an alert must exceed.
	HotPixelThreshold int
	// Cooldown is the minimum time between two alerts.
	Cooldown time.Duration
	// QuietWindow suppresses detection right after the robot itself moved.
	QuietWindow time.Duration
	// Messages are the alert texts, one picked uniformly per alert.
	Messages []string
}

// Validate checks the settings Detect depends on.
func (c Config) Validate() error {
	if c.Stride <= 0 {
		return fmt.Errorf("stride must be positive, got %d", c.Stride)
	}
	if len(c.Messages) == 0 {
		return errors.New("at least one alert message is required")
	}
	return nil
}

// State is the detector state carried between calls.
type State struct {
	Previous             *Frame
	LastAlert            time.Time
	LastMechanicalMotion time.Time
}

// MechanicalMotion records that the robot moved at now. The retained frame
// is dropped so the first frame after the quiet window bootstraps again.
func (s State) MechanicalMotion(now time.Time) State {
	s.LastMechanicalMotion = now
	s.Previous = nil
	return s
}

// Event is a motion alert.
type Event struct {
	Time      time.Time
	HotPixels int
	Message   string
}

// Result is the outcome of one Detect call.
type Result struct {
	// Diff is the downsampled diff raster; nil when no comparison ran.
	Diff      *image.RGBA
	HotPixels int
	// Alert is set when this call raised a notification.
	Alert *Event
	// Gated reports that the quiet window skipped the comparison.
	Gated bool
	// Bootstrapped reports that current became the reference frame without
	// a comparison.
	Bootstrapped bool
	State        State
}

// Detect compares current against the retained frame in state.
//
// now must be non-decreasing across calls. rng may be nil, in which case the
// math/rand global source picks the alert message.
func Detect(current *Frame, state State, now time.Time, cfg Config, rng Rand) (Result, error) {
	if current == nil || current.bounds.Empty() {
		return Result{State: state}, fmt.Errorf("%w: no frame", ErrDecode)
	}
	if err := cfg.Validate(); err != nil {
		return Result{State: state}, err
	}

	if !state.LastMechanicalMotion.IsZero() && now.Sub(state.LastMechanicalMotion) < cfg.QuietWindow {
		return Result{Gated: true, State: state}, nil
	}

	// A size change restarts the comparison just like a gating reset.
	if state.Previous == nil || !state.Previous.sameSize(current) {
		state.Previous = current
		return Result{Bootstrapped: true, State: state}, nil
	}

	diff, hot := diffRaster(current, state.Previous, cfg)

	res := Result{Diff: diff, HotPixels: hot}
	if hot > cfg.HotPixelThreshold && cooledDown(state.LastAlert, now, cfg.Cooldown) {
		res.Alert = &Event{
			Time:      now,
			HotPixels: hot,
			Message:   pickMessage(cfg.Messages, rng),
		}
		state.LastAlert = now
	}

	state.Previous = current
	res.State = state
	return res, nil
}

func diffRaster(current, previous *Frame, cfg Config) (*image.RGBA, int) {
	w := current.Width() / cfg.Stride
	h := current.Height() / cfg.Stride
	diff := image.NewRGBA(image.Rect(0, 0, w, h))

	hot := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x*cfg.Stride, y*cfg.Stride

			cr, cg, cb := current.rgb(sx, sy)
			pr, pg, pb := previous.rgb(sx, sy)
			m := math.Max(math.Abs(cr-pr), math.Max(math.Abs(cg-pg), math.Abs(cb-pb)))

			if m > cfg.PixelThreshold {
				diff.SetRGBA(x, y, HotColor)
				hot++
				continue
			}
			diff.SetRGBA(x, y, current.at(sx, sy))
		}
	}
	return diff, hot
}

func cooledDown(last, now time.Time, cooldown time.Duration) bool {
	// No alert has been raised yet.
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > cooldown
}

func pickMessage(messages []string, rng Rand) string {
	if rng == nil {
		return messages[rand.Intn(len(messages))]
	}
	return messages[rng.Intn(len(messages))]
}
