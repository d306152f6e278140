package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Console channels. Each channel is bound to exactly one ROS topic.
const (
	ChannelClock     = "clock"
	ChannelImage     = "image"
	ChannelInput     = "input"
	ChannelLife      = "life"
	ChannelPose      = "pose"
	ChannelRPM       = "rpm"
	ChannelScan      = "scan"
	ChannelToF       = "tof"
	ChannelVoltage   = "voltage"
	ChannelImu       = "imu"
	ChannelCalibrate = "calibrate"
	ChannelCurrent   = "current"
)

// Priorities and directions used by topic mappings.
const (
	PriorityHigh     = "HIGH"
	PriorityStandard = "STANDARD"
	PriorityLow      = "LOW"

	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
)

// Config represents the operational console configuration
type Config struct {
	Version       string          `yaml:"version" json:"version"`
	ConfigID      string          `yaml:"config_id" json:"config_id"`
	LastUpdated   string          `yaml:"lastUpdated" json:"lastUpdated"`
	RobotID       string          `yaml:"robot_id" json:"robot_id"`
	Topics        TopicSet        `yaml:"topics" json:"topics"`
	TopicMappings []TopicMapping  `yaml:"topic_mappings" json:"topic_mappings"`
	Defaults      DefaultsConfig  `yaml:"defaults" json:"defaults"`
	Motion        MotionConfig    `yaml:"motion" json:"motion"`
	Particles     ParticlesConfig `yaml:"particles" json:"particles"`
	Joystick      JoystickConfig  `yaml:"joystick" json:"joystick"`
}

// TopicSet names the ROS topic used for each console channel.
type TopicSet struct {
	Clock     string `yaml:"clock" json:"clock"`
	Image     string `yaml:"image" json:"image"`
	Input     string `yaml:"input" json:"input"`
	Life      string `yaml:"life" json:"life"`
	Pose      string `yaml:"pose" json:"pose"`
	RPM       string `yaml:"rpm" json:"rpm"`
	Scan      string `yaml:"scan" json:"scan"`
	ToF       string `yaml:"tof" json:"tof"`
	Voltage   string `yaml:"voltage" json:"voltage"`
	Imu       string `yaml:"imu" json:"imu"`
	Calibrate string `yaml:"calibrate" json:"calibrate"`
	Current   string `yaml:"current" json:"current"`
}

// DefaultTopics returns the topic names used when a channel is left empty.
func DefaultTopics() TopicSet {
	return TopicSet{
		Clock:     "/clock",
		Image:     "/camera/image_raw/compressed",
		Input:     "/joy",
		Life:      "/life_detection",
		Pose:      "/pose",
		RPM:       "/rpm",
		Scan:      "/scan",
		ToF:       "/tof",
		Voltage:   "/voltage",
		Imu:       "/imu",
		Calibrate: "/calibrate",
		Current:   "/current",
	}
}

// WithDefaults returns a copy where every empty topic is replaced by its default.
func (t TopicSet) WithDefaults() TopicSet {
	d := DefaultTopics()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return TopicSet{
		Clock:     pick(t.Clock, d.Clock),
		Image:     pick(t.Image, d.Image),
		Input:     pick(t.Input, d.Input),
		Life:      pick(t.Life, d.Life),
		Pose:      pick(t.Pose, d.Pose),
		RPM:       pick(t.RPM, d.RPM),
		Scan:      pick(t.Scan, d.Scan),
		ToF:       pick(t.ToF, d.ToF),
		Voltage:   pick(t.Voltage, d.Voltage),
		Imu:       pick(t.Imu, d.Imu),
		Calibrate: pick(t.Calibrate, d.Calibrate),
		Current:   pick(t.Current, d.Current),
	}
}

// TopicMapping binds a ROS topic to a console channel
type TopicMapping struct {
	Channel     string `yaml:"channel" json:"channel"`
	RosTopic    string `yaml:"ros_topic" json:"ros_topic"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Priority    string `yaml:"priority" json:"priority"`
	Direction   string `yaml:"direction" json:"direction"`
}

// DefaultsConfig holds the routing used for topics that match no channel
type DefaultsConfig struct {
	Priority  string `yaml:"priority" json:"priority"`
	Direction string `yaml:"direction" json:"direction"`
}

// MotionConfig holds the camera motion detector settings. A zero value in any
// numeric field selects its default, so an effectively disabled quiet window
// or cooldown is written as a tiny positive duration such as 1ns.
type MotionConfig struct {
	Enabled              bool          `yaml:"enabled" json:"enabled"`
	ImageMotionThreshold float64       `yaml:"image_motion_threshold" json:"image_motion_threshold"`
	MotionPixelThreshold int           `yaml:"motion_pixel_threshold" json:"motion_pixel_threshold"`
	Stride               int           `yaml:"stride" json:"stride"`
	QuietWindow          time.Duration `yaml:"quiet_window" json:"quiet_window"`
	Cooldown             time.Duration `yaml:"cooldown" json:"cooldown"`
	RPMMotionThreshold   float64       `yaml:"rpm_motion_threshold" json:"rpm_motion_threshold"`
	Messages             []string      `yaml:"messages" json:"messages"`
	MaxFrameDimension    int           `yaml:"max_frame_dimension" json:"max_frame_dimension"`
}

// ParticlesConfig holds the scan point cloud settings
type ParticlesConfig struct {
	Resolution   uint    `yaml:"resolution" json:"resolution"`
	ParticleSize float32 `yaml:"particle_size" json:"particle_size"`
}

// JoystickConfig holds the throttle bounds for outbound joystick commands
type JoystickConfig struct {
	InitialThrottle float64 `yaml:"initial_throttle" json:"initial_throttle"`
	MinThrottle     float64 `yaml:"min_throttle" json:"min_throttle"`
	MaxThrottle     float64 `yaml:"max_throttle" json:"max_throttle"`
}

// DefaultMotionMessage is used when no alert messages are configured.
const DefaultMotionMessage = "Strong movement patterns detected in front of the robot!"

// channelSpec is the fixed message type and default routing of a channel.
type channelSpec struct {
	messageType string
	priority    string
	direction   string
}

var channelSpecs = map[string]channelSpec{
	ChannelClock:     {"std_msgs/Header", PriorityHigh, DirectionInbound},
	ChannelImage:     {"sensor_msgs/CompressedImage", PriorityHigh, DirectionInbound},
	ChannelInput:     {"sensor_msgs/Joy", PriorityHigh, DirectionOutbound},
	ChannelLife:      {"std_msgs/String", PriorityStandard, DirectionOutbound},
	ChannelPose:      {"geometry_msgs/PoseStamped", PriorityStandard, DirectionInbound},
	ChannelRPM:       {"std_msgs/Float32MultiArray", PriorityHigh, DirectionInbound},
	ChannelScan:      {"sensor_msgs/LaserScan", PriorityHigh, DirectionInbound},
	ChannelToF:       {"std_msgs/Float32MultiArray", PriorityStandard, DirectionInbound},
	ChannelVoltage:   {"std_msgs/Float32", PriorityLow, DirectionInbound},
	ChannelImu:       {"sensor_msgs/Imu", PriorityStandard, DirectionInbound},
	ChannelCalibrate: {"std_srvs/Empty", PriorityLow, DirectionOutbound},
	ChannelCurrent:   {"std_msgs/Float32", PriorityLow, DirectionInbound},
}

// LoadConfig loads configuration from the specified file path and fills
// unset values with their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes an operational config from YAML and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	c.Topics = c.Topics.WithDefaults()

	if c.Defaults.Priority == "" {
		c.Defaults.Priority = PriorityStandard
	}
	if c.Defaults.Direction == "" {
		c.Defaults.Direction = DirectionInbound
	}

	m := &c.Motion
	if m.ImageMotionThreshold == 0 {
		m.ImageMotionThreshold = 0.2
	}
	if m.MotionPixelThreshold == 0 {
		m.MotionPixelThreshold = 1000
	}
	if m.Stride == 0 {
		m.Stride = 8
	}
	if m.QuietWindow == 0 {
		m.QuietWindow = time.Second
	}
	if m.Cooldown == 0 {
		m.Cooldown = 10 * time.Second
	}
	if m.RPMMotionThreshold == 0 {
		m.RPMMotionThreshold = 0.05
	}
	if len(m.Messages) == 0 {
		m.Messages = []string{DefaultMotionMessage}
	}
	if m.MaxFrameDimension == 0 {
		m.MaxFrameDimension = 8192
	}

	if c.Particles.Resolution == 0 {
		c.Particles.Resolution = 2048
	}
	if c.Particles.ParticleSize == 0 {
		c.Particles.ParticleSize = 0.1
	}

	j := &c.Joystick
	if j.MinThrottle == 0 {
		j.MinThrottle = 0.05
	}
	if j.MaxThrottle == 0 {
		j.MaxThrottle = 1.0
	}
	if j.InitialThrottle == 0 {
		j.InitialThrottle = 0.3
	}
}

// TopicForChannel returns the ROS topic bound to a channel.
func (c *Config) TopicForChannel(channel string) (string, bool) {
	t := c.Topics
	switch channel {
	case ChannelClock:
		return t.Clock, true
	case ChannelImage:
		return t.Image, true
	case ChannelInput:
		return t.Input, true
	case ChannelLife:
		return t.Life, true
	case ChannelPose:
		return t.Pose, true
	case ChannelRPM:
		return t.RPM, true
	case ChannelScan:
		return t.Scan, true
	case ChannelToF:
		return t.ToF, true
	case ChannelVoltage:
		return t.Voltage, true
	case ChannelImu:
		return t.Imu, true
	case ChannelCalibrate:
		return t.Calibrate, true
	case ChannelCurrent:
		return t.Current, true
	}
	return "", false
}

// ResolvedMappings returns one mapping per channel. Non-empty fields of an
// explicit topic_mappings entry override the built-in values of its channel.
func (c *Config) ResolvedMappings() []TopicMapping {
	overrides := make(map[string]TopicMapping, len(c.TopicMappings))
	for _, m := range c.TopicMappings {
		overrides[m.Channel] = m
	}

	channels := []string{
		ChannelClock, ChannelImage, ChannelInput, ChannelLife, ChannelPose, ChannelRPM,
		ChannelScan, ChannelToF, ChannelVoltage, ChannelImu, ChannelCalibrate, ChannelCurrent,
	}

	result := make([]TopicMapping, 0, len(channels))
	for _, ch := range channels {
		spec := channelSpecs[ch]
		topic, _ := c.TopicForChannel(ch)
		mapping := TopicMapping{
			Channel:     ch,
			RosTopic:    topic,
			MessageType: spec.messageType,
			Priority:    spec.priority,
			Direction:   spec.direction,
		}
		if o, ok := overrides[ch]; ok {
			if o.RosTopic != "" {
				mapping.RosTopic = o.RosTopic
			}
			if o.MessageType != "" {
				mapping.MessageType = o.MessageType
			}
			if o.Priority != "" {
				mapping.Priority = o.Priority
			}
			if o.Direction != "" {
				mapping.Direction = o.Direction
			}
		}
		result = append(result, mapping)
	}
	return result
}

// GetTopicMappingsByDirection returns resolved mappings filtered by direction
func (c *Config) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping
	for _, mapping := range c.ResolvedMappings() {
		if mapping.Direction == direction {
			result = append(result, mapping)
		}
	}
	return result
}

// GetTopicMappingByRosTopic returns the resolved mapping for a ROS topic
func (c *Config) GetTopicMappingByRosTopic(rosTopic string) (TopicMapping, bool) {
	for _, mapping := range c.ResolvedMappings() {
		if mapping.RosTopic == rosTopic {
			return mapping, true
		}
	}
	return TopicMapping{}, false
}
