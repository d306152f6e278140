// Package teleop holds the console session: the state carried between
// inbound robot messages and the handlers that update it.
package teleop

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/open-teleop/console/domain/motion"
	"github.com/open-teleop/console/domain/particles"
	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/rosmsg"
)

// recentAlertLimit bounds the alert history kept for the telemetry view.
const recentAlertLimit = 10

// Publisher sends a ROS message to the gateway on a topic.
type Publisher interface {
	PublishROS(topic string, msg rosmsg.Message) error
}

// FrameSink receives the latest camera frame and diff raster.
type FrameSink interface {
	SetFrame(format string, data []byte, at time.Time)
	SetDiff(diff *image.RGBA, at time.Time)
}

// ParticleSink receives every packed point cloud.
type ParticleSink interface {
	PublishParticles(buf *particles.PackedBuffer)
}

// Sinks are the collaborators a Session writes to. Nil members are skipped.
type Sinks struct {
	Publisher Publisher
	Frames    FrameSink
	Particles ParticleSink
	// Rand picks alert messages; nil uses the math/rand global source.
	Rand motion.Rand
	// Now is the wall clock used until the robot publishes its own clock.
	Now func() time.Time
}

// Session is the console state machine. Every handler runs to completion
// under the session lock; outbound publishing happens after it is released.
type Session struct {
	logger customlog.Logger
	sinks  Sinks

	mu        sync.Mutex
	topics    config.TopicSet
	motionCfg config.MotionConfig
	joyCfg    config.JoystickConfig
	packer    *particles.Packer

	clock         time.Time
	detector      motion.State
	motionEnabled bool
	alertCount    int
	recentAlerts  []Alert

	throttle float64
	lights   [lightCount]bool

	mesh          []r3.Vector
	particleCount int
	telemetry     Telemetry
}

// Alert is a motion alert as shown to operators.
type Alert struct {
	Time      time.Time `json:"time"`
	HotPixels int       `json:"hot_pixels"`
	Message   string    `json:"message"`
}

// NewSession creates a session from the operational configuration.
func NewSession(cfg *config.Config, logger customlog.Logger, sinks Sinks) *Session {
	if sinks.Now == nil {
		sinks.Now = time.Now
	}
	s := &Session{
		logger: logger,
		sinks:  sinks,
	}
	s.applyConfig(cfg)
	s.motionEnabled = cfg.Motion.Enabled
	s.throttle = clamp(cfg.Joystick.InitialThrottle, cfg.Joystick.MinThrottle, cfg.Joystick.MaxThrottle)
	return s
}

// ApplyConfig swaps in a new operational configuration. Detector state is
// kept, so a topic rename does not force a new bootstrap frame.
func (s *Session) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyConfig(cfg)
	s.throttle = clamp(s.throttle, s.joyCfg.MinThrottle, s.joyCfg.MaxThrottle)
	s.logger.Infof("Session configuration applied (config_id=%s)", cfg.ConfigID)
}

func (s *Session) applyConfig(cfg *config.Config) {
	s.topics = cfg.Topics.WithDefaults()
	s.motionCfg = cfg.Motion
	s.joyCfg = cfg.Joystick
	s.packer = particles.NewPacker(cfg.Particles.Resolution, cfg.Particles.ParticleSize)
}

func (s *Session) detectorConfig() motion.Config {
	return motion.Config{
		Stride:            s.motionCfg.Stride,
		PixelThreshold:    s.motionCfg.ImageMotionThreshold,
		HotPixelThreshold: s.motionCfg.MotionPixelThreshold,
		Cooldown:          s.motionCfg.Cooldown,
		QuietWindow:       s.motionCfg.QuietWindow,
		Messages:          s.motionCfg.Messages,
	}
}

// now returns the robot clock once one was received, the wall clock before.
func (s *Session) now() time.Time {
	if !s.clock.IsZero() {
		return s.clock
	}
	return s.sinks.Now()
}

// OnClock advances the console clock to the robot's clock.
func (s *Session) OnClock(msg *rosmsg.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := msg.Stamp.Time()
	if stamp.IsZero() {
		return
	}
	if s.clock.IsZero() {
		// Times recorded against the wall clock cannot be compared with
		// robot time.
		s.detector.LastAlert = time.Time{}
		s.detector.LastMechanicalMotion = time.Time{}
		s.logger.Infof("Switching to robot clock at %s", stamp.Format(time.RFC3339Nano))
	}
	if stamp.Before(s.clock) {
		s.logger.Warnf("Robot clock went backwards (%s < %s), ignoring", stamp, s.clock)
		return
	}
	s.clock = stamp
}

// OnRPM records wheel speeds. Any wheel above the motion threshold marks
// mechanical motion, which pauses visual detection for the quiet window.
func (s *Session) OnRPM(msg *rosmsg.Float32MultiArray) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moving := false
	for _, v := range msg.Data {
		if abs(float64(v)) > s.motionCfg.RPMMotionThreshold {
			moving = true
			break
		}
	}
	if moving {
		s.detector = s.detector.MechanicalMotion(s.now())
	}

	if len(msg.Data) < 4 {
		return moving, fmt.Errorf("rpm message has %d values, want 4", len(msg.Data))
	}
	s.telemetry.RPM = WheelReadings{
		FrontRight: msg.Data[0],
		RearRight:  msg.Data[1],
		FrontLeft:  -msg.Data[2],
		RearLeft:   -msg.Data[3],
	}
	s.telemetry.Updated = s.now()
	return moving, nil
}

// OnImage handles a compressed camera frame. The raw frame is always
// forwarded for display; detection runs only while motion detection is
// enabled. A frame that fails to decode leaves the detector untouched.
func (s *Session) OnImage(msg *rosmsg.CompressedImage) (motion.Result, error) {
	if len(msg.Data) == 0 {
		return motion.Result{}, fmt.Errorf("received empty image: %w", motion.ErrEmptyFrame)
	}

	s.mu.Lock()
	now := s.now()
	enabled := s.motionEnabled
	maxDim := s.motionCfg.MaxFrameDimension
	s.mu.Unlock()

	if s.sinks.Frames != nil {
		s.sinks.Frames.SetFrame(msg.Format, msg.Data, now)
	}
	if !enabled {
		return motion.Result{}, nil
	}

	frame, err := motion.DecodeLimited(msg.Data, maxDim)
	if err != nil {
		return motion.Result{}, err
	}

	s.mu.Lock()
	now = s.now()
	res, err := motion.Detect(frame, s.detector, now, s.detectorConfig(), s.sinks.Rand)
	if err != nil {
		s.mu.Unlock()
		return res, err
	}
	s.detector = res.State
	lifeTopic := s.topics.Life
	if res.Alert != nil {
		s.recordAlert(res.Alert)
	}
	s.mu.Unlock()

	if res.Diff != nil && s.sinks.Frames != nil {
		s.sinks.Frames.SetDiff(res.Diff, now)
	}
	if res.Alert != nil {
		s.logger.WithField("hot_pixels", res.Alert.HotPixels).Infof("%s", res.Alert.Message)
		if err := s.publish(lifeTopic, &rosmsg.String{Data: res.Alert.Message}); err != nil {
			return res, fmt.Errorf("publishing motion alert: %w", err)
		}
	}
	return res, nil
}

func (s *Session) recordAlert(ev *motion.Event) {
	s.alertCount++
	s.recentAlerts = append(s.recentAlerts, Alert{Time: ev.Time, HotPixels: ev.HotPixels, Message: ev.Message})
	if len(s.recentAlerts) > recentAlertLimit {
		s.recentAlerts = s.recentAlerts[len(s.recentAlerts)-recentAlertLimit:]
	}
}

// OnScan converts a laser scan into particles and hands them to the
// renderer. Scans are ignored while a mesh is being shown.
func (s *Session) OnScan(msg *rosmsg.LaserScan) (*particles.PackedBuffer, error) {
	s.mu.Lock()
	if s.mesh != nil {
		s.mu.Unlock()
		return nil, nil
	}
	points := particles.ConvertScan(msg.Ranges, msg.RangeMin, msg.RangeMax)
	buf := s.packer.Pack(points)
	s.particleCount = buf.Count
	s.mu.Unlock()

	if s.sinks.Particles != nil {
		s.sinks.Particles.PublishParticles(buf)
	}
	return buf, nil
}

// OnMesh switches the renderer to a mesh made of white particles. A nil
// slice returns to scan rendering.
func (s *Session) OnMesh(vertices []r3.Vector) *particles.PackedBuffer {
	s.mu.Lock()
	s.mesh = vertices
	if vertices == nil {
		s.mu.Unlock()
		return nil
	}
	buf := s.packer.Pack(particles.FromVertices(vertices))
	s.particleCount = buf.Count
	s.mu.Unlock()

	if s.sinks.Particles != nil {
		s.sinks.Particles.PublishParticles(buf)
	}
	return buf
}

// MotionEnabled reports whether visual motion detection runs.
func (s *Session) MotionEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motionEnabled
}

// SetMotionEnabled turns visual motion detection on or off. Enabling it
// drops the retained frame so the next frame bootstraps.
func (s *Session) SetMotionEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMotionEnabled(enabled)
}

// ToggleMotion flips motion detection and returns the new setting.
func (s *Session) ToggleMotion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMotionEnabled(!s.motionEnabled)
	return s.motionEnabled
}

func (s *Session) setMotionEnabled(enabled bool) {
	if enabled && !s.motionEnabled {
		s.detector.Previous = nil
	}
	s.motionEnabled = enabled
}

// Calibrate asks the robot to recalibrate its sensors.
func (s *Session) Calibrate() error {
	s.mu.Lock()
	topic := s.topics.Calibrate
	s.mu.Unlock()
	return s.publish(topic, &rosmsg.Empty{})
}

func (s *Session) publish(topic string, msg rosmsg.Message) error {
	if s.sinks.Publisher == nil {
		return nil
	}
	return s.sinks.Publisher.PublishROS(topic, msg)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
