package teleop

import (
	"fmt"

	"github.com/open-teleop/console/pkg/rosmsg"
)

const (
	lightCount  = 9
	buttonCount = 12

	buttonHorn = 9
	buttonKeyE = 10
)

// JoyFrameID is the frame id stamped on every outbound joystick message.
const JoyFrameID = "joy"

// JoyInput is one sample of operator input.
type JoyInput struct {
	// Horizontal and Vertical are the movement axes in [-1, 1].
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
	// ThrottleAxis is the raw joystick throttle in [-1, 1], nil when no
	// joystick is attached.
	ThrottleAxis *float64 `json:"throttle_axis,omitempty"`
	// KeyThrottle nudges the throttle by KeyThrottle percent.
	KeyThrottle float64 `json:"key_throttle"`
	// ToggleLights lists light indices (0-8) to flip.
	ToggleLights []int `json:"toggle_lights,omitempty"`
	Horn         bool  `json:"horn"`
	KeyE         bool  `json:"key_e"`
	ToggleMotion bool  `json:"toggle_motion"`
}

// BuildJoy folds input into the latched throttle and light state and returns
// the resulting joystick message.
func (s *Session) BuildJoy(in JoyInput) *rosmsg.Joy {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ThrottleAxis != nil {
		s.throttle = 1 - (clamp(*in.ThrottleAxis, -1, 1)+1)*0.5
	}
	s.throttle += in.KeyThrottle / 100
	s.throttle = clamp(s.throttle, s.joyCfg.MinThrottle, s.joyCfg.MaxThrottle)

	for _, idx := range in.ToggleLights {
		if idx >= 0 && idx < lightCount {
			s.lights[idx] = !s.lights[idx]
		}
	}
	if in.ToggleMotion {
		s.setMotionEnabled(!s.motionEnabled)
	}

	x := 0.5 * clamp(in.Horizontal, -1, 1)
	y := clamp(in.Vertical, -1, 1)

	buttons := make([]int32, buttonCount)
	for i, on := range s.lights {
		buttons[i] = boolToButton(on)
	}
	buttons[buttonHorn] = boolToButton(in.Horn)
	buttons[buttonKeyE] = boolToButton(in.KeyE)

	return &rosmsg.Joy{
		Header: rosmsg.Header{
			Stamp:   rosmsg.NewTime(s.clock),
			FrameID: JoyFrameID,
		},
		Axes:    []float32{0, float32(y), float32(-x), float32(s.throttle*2 - 1)},
		Buttons: buttons,
	}
}

// SendJoy builds a joystick message from input and publishes it on the
// input topic.
func (s *Session) SendJoy(in JoyInput) (*rosmsg.Joy, error) {
	joy := s.BuildJoy(in)

	s.mu.Lock()
	topic := s.topics.Input
	s.mu.Unlock()

	if err := s.publish(topic, joy); err != nil {
		return joy, fmt.Errorf("publishing joystick input: %w", err)
	}
	return joy, nil
}

// Throttle returns the latched throttle in [min, max].
func (s *Session) Throttle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.throttle
}

func boolToButton(on bool) int32 {
	if on {
		return 1
	}
	return 0
}
