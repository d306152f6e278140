package teleop

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/console/domain/motion"
	"github.com/open-teleop/console/domain/particles"
	"github.com/open-teleop/console/pkg/config"
	"github.com/open-teleop/console/pkg/envelope"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/processing"
	"github.com/open-teleop/console/pkg/rosmsg"
)

type published struct {
	topic string
	msg   rosmsg.Message
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) PublishROS(topic string, msg rosmsg.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic, msg})
	return nil
}

type recordingFrames struct {
	frames int
	diffs  []*image.RGBA
}

func (f *recordingFrames) SetFrame(string, []byte, time.Time) { f.frames++ }
func (f *recordingFrames) SetDiff(d *image.RGBA, _ time.Time) { f.diffs = append(f.diffs, d) }

type recordingRenderer struct {
	bufs []*particles.PackedBuffer
}

func (r *recordingRenderer) PublishParticles(b *particles.PackedBuffer) { r.bufs = append(r.bufs, b) }

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	session   *Session
	publisher *recordingPublisher
	frames    *recordingFrames
	renderer  *recordingRenderer
	clock     *fakeClock
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.Motion = config.MotionConfig{
		Enabled:              true,
		ImageMotionThreshold: 0.2,
		MotionPixelThreshold: 10,
		Stride:               1,
		QuietWindow:          time.Second,
		Cooldown:             10 * time.Second,
		Messages:             []string{"movement ahead"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ApplyDefaults()

	f := &fixture{
		publisher: &recordingPublisher{},
		frames:    &recordingFrames{},
		renderer:  &recordingRenderer{},
		clock:     &fakeClock{t: time.Unix(1000, 0)},
	}
	f.session = NewSession(cfg, customlog.Discard(), Sinks{
		Publisher: f.publisher,
		Frames:    f.frames,
		Particles: f.renderer,
		Rand:      firstRand{},
		Now:       f.clock.Now,
	})
	return f
}

func solidPNG(t *testing.T, c color.Color) *rosmsg.CompressedImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &rosmsg.CompressedImage{Format: "png", Data: buf.Bytes()}
}

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestOnImageBootstrapThenAlert(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)
	assert.True(t, res.Bootstrapped)
	assert.Empty(t, f.frames.diffs)

	f.clock.Advance(100 * time.Millisecond)
	res, err = f.session.OnImage(solidPNG(t, white))
	require.NoError(t, err)
	assert.Equal(t, 256, res.HotPixels)
	require.NotNil(t, res.Alert)

	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, "/life_detection", f.publisher.sent[0].topic)
	assert.Equal(t, &rosmsg.String{Data: "movement ahead"}, f.publisher.sent[0].msg)

	assert.Equal(t, 2, f.frames.frames)
	require.Len(t, f.frames.diffs, 1)
	assert.Equal(t, 1, f.session.AlertCount())
	assert.Len(t, f.session.Snapshot().RecentAlerts, 1)
}

func TestOnImageCooldown(t *testing.T) {
	f := newFixture(t, nil)

	frames := []color.Color{black, white, black, white}
	for _, c := range frames {
		_, err := f.session.OnImage(solidPNG(t, c))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	assert.Equal(t, 1, f.session.AlertCount(), "alerts inside the cooldown are suppressed")

	f.clock.Advance(15 * time.Second)
	_, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)
	assert.Equal(t, 2, f.session.AlertCount())
}

func TestOnImageDisabledOnlyForwardsFrame(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Motion.Enabled = false })

	res, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)
	assert.False(t, res.Bootstrapped)
	assert.Equal(t, 1, f.frames.frames)
	assert.Empty(t, f.frames.diffs)
}

func TestOnImageBadInput(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.OnImage(&rosmsg.CompressedImage{})
	assert.ErrorIs(t, err, motion.ErrEmptyFrame)
	assert.Zero(t, f.frames.frames)

	_, err = f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)

	_, err = f.session.OnImage(&rosmsg.CompressedImage{Format: "jpeg", Data: []byte("garbage")})
	assert.ErrorIs(t, err, motion.ErrDecode)

	// The last good frame is still the reference.
	res, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)
	assert.False(t, res.Bootstrapped)
	assert.Zero(t, res.HotPixels)
}

func TestOnImageRejectsFramesAboveMaxDimension(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Motion.MaxFrameDimension = 8 })

	res, err := f.session.OnImage(solidPNG(t, black))
	assert.ErrorIs(t, err, motion.ErrDecode)
	assert.False(t, res.Bootstrapped)
	assert.Equal(t, 1, f.frames.frames)
}

func TestRPMGatesDetection(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)

	moving, err := f.session.OnRPM(&rosmsg.Float32MultiArray{Data: []float32{0, 0.2, 0, 0}})
	require.NoError(t, err)
	assert.True(t, moving)

	f.clock.Advance(500 * time.Millisecond)
	res, err := f.session.OnImage(solidPNG(t, white))
	require.NoError(t, err)
	assert.True(t, res.Gated)

	f.clock.Advance(2 * time.Second)
	res, err = f.session.OnImage(solidPNG(t, white))
	require.NoError(t, err)
	assert.True(t, res.Bootstrapped, "mechanical motion drops the reference frame")
	assert.Zero(t, f.session.AlertCount())
}

func TestOnRPMTelemetry(t *testing.T) {
	f := newFixture(t, nil)

	moving, err := f.session.OnRPM(&rosmsg.Float32MultiArray{Data: []float32{0.01, 0.02, 0.03, -0.04}})
	require.NoError(t, err)
	assert.False(t, moving)

	rpm := f.session.Snapshot().RPM
	assert.Equal(t, float32(0.01), rpm.FrontRight)
	assert.Equal(t, float32(0.02), rpm.RearRight)
	assert.Equal(t, float32(-0.03), rpm.FrontLeft)
	assert.Equal(t, float32(0.04), rpm.RearLeft)

	moving, err = f.session.OnRPM(&rosmsg.Float32MultiArray{Data: []float32{3}})
	assert.Error(t, err)
	assert.True(t, moving)
	assert.False(t, f.session.Snapshot().LastMechanicalMotion.IsZero())
}

func TestOnClockSwitchesToRobotTime(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.OnRPM(&rosmsg.Float32MultiArray{Data: []float32{1, 1, 1, 1}})
	require.NoError(t, err)

	f.session.OnClock(&rosmsg.Header{Stamp: rosmsg.Time{Sec: 50}})
	snap := f.session.Snapshot()
	assert.Equal(t, time.Unix(50, 0), snap.Clock)
	assert.True(t, snap.LastMechanicalMotion.IsZero(), "wall clock times are discarded")

	f.session.OnClock(&rosmsg.Header{Stamp: rosmsg.Time{Sec: 40}})
	assert.Equal(t, time.Unix(50, 0), f.session.Snapshot().Clock)

	joy := f.session.BuildJoy(JoyInput{})
	assert.Equal(t, uint32(50), joy.Header.Stamp.Sec)
}

func TestTelemetryHandlers(t *testing.T) {
	f := newFixture(t, nil)

	f.session.OnVoltage(&rosmsg.Float32{Data: 12.1})
	f.session.OnCurrent(&rosmsg.Float32{Data: 1.5})
	require.NoError(t, f.session.OnToF(&rosmsg.Float32MultiArray{Data: []float32{1, 2, 3, 4}}))
	assert.Error(t, f.session.OnToF(&rosmsg.Float32MultiArray{Data: []float32{1}}))
	f.session.OnPose(&rosmsg.PoseStamped{Pose: rosmsg.Pose{Position: rosmsg.Point{X: 1, Y: 2, Z: 3}, Orientation: rosmsg.Quaternion{W: 1}}})
	f.session.OnImu(&rosmsg.Imu{LinearAcceleration: rosmsg.Vector3{Z: 9.8}, AngularVelocity: rosmsg.Vector3{X: 0.1}})

	snap := f.session.Snapshot()
	assert.Equal(t, float32(12.1), snap.Voltage)
	assert.Equal(t, float32(1.5), snap.Current)
	assert.Equal(t, WheelReadings{FrontLeft: 1, FrontRight: 2, RearLeft: 3, RearRight: 4}, snap.ToF)
	assert.Equal(t, Vector{X: 1, Y: 2, Z: 3}, snap.Pose.Position)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, snap.Pose.Orientation)
	assert.Equal(t, 9.8, snap.Imu.LinearAcceleration.Z)
	assert.Equal(t, 0.1, snap.Imu.AngularVelocity.X)
	assert.Equal(t, f.clock.t, snap.Updated)
}

func TestOnScanPacksAndPublishes(t *testing.T) {
	f := newFixture(t, nil)

	buf, err := f.session.OnScan(&rosmsg.LaserScan{
		RangeMin: 0.1,
		RangeMax: 4,
		Ranges:   []float32{1, 0, 5},
	})
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.Equal(t, 1, buf.Count)
	assert.Equal(t, float32(0.1), buf.Scale)
	require.Len(t, f.renderer.bufs, 1)
	assert.Equal(t, 1, f.session.Snapshot().ParticleCount)
}

func TestMeshModeOverridesScans(t *testing.T) {
	f := newFixture(t, nil)

	buf := f.session.OnMesh([]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}})
	require.NotNil(t, buf)
	assert.Equal(t, 3, buf.Count)
	assert.Equal(t, particles.White, buf.ColorAt(2))
	assert.True(t, f.session.Snapshot().MeshMode)

	scan := &rosmsg.LaserScan{RangeMin: 0.1, RangeMax: 4, Ranges: []float32{1}}
	buf, err := f.session.OnScan(scan)
	require.NoError(t, err)
	assert.Nil(t, buf)

	assert.Nil(t, f.session.OnMesh(nil))
	buf, err = f.session.OnScan(scan)
	require.NoError(t, err)
	assert.NotNil(t, buf)
	assert.Len(t, f.renderer.bufs, 2)
}

func TestMotionToggle(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.session.MotionEnabled())

	_, err := f.session.OnImage(solidPNG(t, black))
	require.NoError(t, err)

	assert.False(t, f.session.ToggleMotion())
	assert.True(t, f.session.ToggleMotion())

	res, err := f.session.OnImage(solidPNG(t, white))
	require.NoError(t, err)
	assert.True(t, res.Bootstrapped, "re-enabling starts from a fresh reference")
}

func TestCalibrate(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Topics.Calibrate = "/robot/calibrate" })

	require.NoError(t, f.session.Calibrate())
	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, "/robot/calibrate", f.publisher.sent[0].topic)
	assert.Equal(t, rosmsg.TypeEmpty, f.publisher.sent[0].msg.TypeName())
}

func TestApplyConfigRenamesTopics(t *testing.T) {
	f := newFixture(t, nil)

	cfg := &config.Config{Topics: config.TopicSet{Input: "/teleop/joy"}}
	cfg.ApplyDefaults()
	f.session.ApplyConfig(cfg)

	_, err := f.session.SendJoy(JoyInput{})
	require.NoError(t, err)
	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, "/teleop/joy", f.publisher.sent[0].topic)
}

func TestRegisterDispatchesByChannel(t *testing.T) {
	f := newFixture(t, nil)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	reg := processing.NewTopicRegistry(customlog.Discard())
	reg.LoadFromConfig(cfg)
	proc := processing.NewRosMessageProcessor(customlog.Discard(), reg)
	f.session.Register(proc)

	payload, err := rosmsg.Marshal(&rosmsg.Float32{Data: 11.5})
	require.NoError(t, err)
	_, err = proc.ProcessMessage(&envelope.Envelope{Topic: "/voltage", Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, float32(11.5), f.session.Snapshot().Voltage)

	payload, err = rosmsg.Marshal(&rosmsg.LaserScan{RangeMin: 0.1, RangeMax: 4, Ranges: []float32{1, 2}})
	require.NoError(t, err)
	result, err := proc.ProcessMessage(&envelope.Envelope{Topic: "/scan", Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"points": 2, "width": 2, "height": 1}, result["data"])
}
