package teleop

import (
	"fmt"
	"time"

	"github.com/open-teleop/console/pkg/rosmsg"
)

// WheelReadings holds one value per wheel or corner sensor.
type WheelReadings struct {
	FrontLeft  float32 `json:"front_left"`
	FrontRight float32 `json:"front_right"`
	RearLeft   float32 `json:"rear_left"`
	RearRight  float32 `json:"rear_right"`
}

// Vector is a 3D reading.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is the robot position and orientation.
type Pose struct {
	Position    Vector     `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

// ImuReading is the latest inertial measurement.
type ImuReading struct {
	LinearAcceleration Vector `json:"linear_acceleration"`
	AngularVelocity    Vector `json:"angular_velocity"`
}

// Telemetry is the latest value of every robot sensor the console shows.
type Telemetry struct {
	Voltage float32       `json:"voltage"`
	Current float32       `json:"current"`
	RPM     WheelReadings `json:"rpm"`
	ToF     WheelReadings `json:"tof"`
	Pose    Pose          `json:"pose"`
	Imu     ImuReading    `json:"imu"`
	Updated time.Time     `json:"updated"`
}

// Snapshot is the full operator view of a session.
type Snapshot struct {
	Telemetry
	Clock                time.Time `json:"clock"`
	Throttle             float64   `json:"throttle"`
	Lights               []bool    `json:"lights"`
	MotionEnabled        bool      `json:"motion_enabled"`
	LastMechanicalMotion time.Time `json:"last_mechanical_motion"`
	AlertCount           int       `json:"alert_count"`
	RecentAlerts         []Alert   `json:"recent_alerts"`
	ParticleCount        int       `json:"particle_count"`
	MeshMode             bool      `json:"mesh_mode"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Telemetry:            s.telemetry,
		Clock:                s.clock,
		Throttle:             s.throttle,
		Lights:               append([]bool(nil), s.lights[:]...),
		MotionEnabled:        s.motionEnabled,
		LastMechanicalMotion: s.detector.LastMechanicalMotion,
		AlertCount:           s.alertCount,
		RecentAlerts:         append([]Alert(nil), s.recentAlerts...),
		ParticleCount:        s.particleCount,
		MeshMode:             s.mesh != nil,
	}
}

// AlertCount returns the number of motion alerts raised so far.
func (s *Session) AlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertCount
}

func (s *Session) OnVoltage(msg *rosmsg.Float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry.Voltage = msg.Data
	s.telemetry.Updated = s.now()
}

func (s *Session) OnCurrent(msg *rosmsg.Float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry.Current = msg.Data
	s.telemetry.Updated = s.now()
}

// OnToF stores the four time-of-flight distances, ordered front-left,
// front-right, rear-left, rear-right.
func (s *Session) OnToF(msg *rosmsg.Float32MultiArray) error {
	if len(msg.Data) < 4 {
		return fmt.Errorf("tof message has %d values, want 4", len(msg.Data))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry.ToF = WheelReadings{
		FrontLeft:  msg.Data[0],
		FrontRight: msg.Data[1],
		RearLeft:   msg.Data[2],
		RearRight:  msg.Data[3],
	}
	s.telemetry.Updated = s.now()
	return nil
}

func (s *Session) OnPose(msg *rosmsg.PoseStamped) {
	p := msg.Pose
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry.Pose = Pose{
		Position:    Vector{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Orientation: [4]float64{p.Orientation.X, p.Orientation.Y, p.Orientation.Z, p.Orientation.W},
	}
	s.telemetry.Updated = s.now()
}

func (s *Session) OnImu(msg *rosmsg.Imu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry.Imu = ImuReading{
		LinearAcceleration: Vector{X: msg.LinearAcceleration.X, Y: msg.LinearAcceleration.Y, Z: msg.LinearAcceleration.Z},
		AngularVelocity:    Vector{X: msg.AngularVelocity.X, Y: msg.AngularVelocity.Y, Z: msg.AngularVelocity.Z},
	}
	s.telemetry.Updated = s.now()
}
