package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
version: "1.0"
config_id: "test-console-config"
lastUpdated: "2024-01-01T00:00:00Z"
robot_id: "test-robot"

topics:
  image: "/front_cam/compressed"
  scan: ""

topic_mappings:
  - channel: "voltage"
    priority: "HIGH"

motion:
  enabled: true
  image_motion_threshold: 0.35
  motion_pixel_threshold: 250
  quiet_window: 2s
  cooldown: 30s
  messages:
    - "Someone is there"
    - "Movement ahead"

particles:
  resolution: 1024
`

	configPath := filepath.Join(tempDir, "test_config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.RobotID != "test-robot" {
		t.Errorf("Expected robot_id test-robot, got %s", config.RobotID)
	}

	if config.Topics.Image != "/front_cam/compressed" {
		t.Errorf("Expected custom image topic, got %s", config.Topics.Image)
	}
	if config.Topics.Scan != "/scan" {
		t.Errorf("Expected empty scan topic to fall back to /scan, got %s", config.Topics.Scan)
	}

	if !config.Motion.Enabled {
		t.Errorf("Expected motion detection enabled")
	}
	if config.Motion.ImageMotionThreshold != 0.35 {
		t.Errorf("Expected image_motion_threshold 0.35, got %v", config.Motion.ImageMotionThreshold)
	}
	if config.Motion.MotionPixelThreshold != 250 {
		t.Errorf("Expected motion_pixel_threshold 250, got %d", config.Motion.MotionPixelThreshold)
	}
	if config.Motion.QuietWindow != 2*time.Second {
		t.Errorf("Expected quiet_window 2s, got %v", config.Motion.QuietWindow)
	}
	if config.Motion.Cooldown != 30*time.Second {
		t.Errorf("Expected cooldown 30s, got %v", config.Motion.Cooldown)
	}
	if len(config.Motion.Messages) != 2 {
		t.Errorf("Expected 2 motion messages, got %d", len(config.Motion.Messages))
	}
	if config.Motion.Stride != 8 {
		t.Errorf("Expected default stride 8, got %d", config.Motion.Stride)
	}

	if config.Particles.Resolution != 1024 {
		t.Errorf("Expected resolution 1024, got %d", config.Particles.Resolution)
	}
	if config.Particles.ParticleSize != 0.1 {
		t.Errorf("Expected default particle size 0.1, got %v", config.Particles.ParticleSize)
	}

	voltage, found := config.GetTopicMappingByRosTopic("/voltage")
	if !found {
		t.Fatalf("Expected to find /voltage mapping")
	}
	if voltage.Priority != PriorityHigh {
		t.Errorf("Expected overridden HIGH priority, got %s", voltage.Priority)
	}
	if voltage.MessageType != "std_msgs/Float32" {
		t.Errorf("Expected built-in message type to survive the override, got %s", voltage.MessageType)
	}
}

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	config.ApplyDefaults()

	if config.Topics != DefaultTopics() {
		t.Errorf("Expected default topics, got %+v", config.Topics)
	}
	if config.Motion.Cooldown != 10*time.Second {
		t.Errorf("Expected default cooldown 10s, got %v", config.Motion.Cooldown)
	}
	if config.Motion.QuietWindow != time.Second {
		t.Errorf("Expected default quiet window 1s, got %v", config.Motion.QuietWindow)
	}
	if len(config.Motion.Messages) != 1 || config.Motion.Messages[0] != DefaultMotionMessage {
		t.Errorf("Expected the default motion message, got %v", config.Motion.Messages)
	}
	if config.Particles.Resolution != 2048 {
		t.Errorf("Expected default resolution 2048, got %d", config.Particles.Resolution)
	}
	if config.Joystick.InitialThrottle != 0.3 || config.Joystick.MinThrottle != 0.05 || config.Joystick.MaxThrottle != 1.0 {
		t.Errorf("Unexpected joystick defaults: %+v", config.Joystick)
	}
}

func TestZeroMotionValuesSelectDefaults(t *testing.T) {
	config, err := ParseConfig([]byte(`
motion:
  quiet_window: 0s
  cooldown: 0s
  stride: 0
`))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if config.Motion.QuietWindow != time.Second {
		t.Errorf("Expected zero quiet window to select 1s, got %v", config.Motion.QuietWindow)
	}
	if config.Motion.Cooldown != 10*time.Second {
		t.Errorf("Expected zero cooldown to select 10s, got %v", config.Motion.Cooldown)
	}
	if config.Motion.Stride != 8 {
		t.Errorf("Expected zero stride to select 8, got %d", config.Motion.Stride)
	}
	if config.Motion.MaxFrameDimension != 8192 {
		t.Errorf("Expected default max frame dimension 8192, got %d", config.Motion.MaxFrameDimension)
	}

	config, err = ParseConfig([]byte("motion:\n  cooldown: 1ns\n"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if config.Motion.Cooldown != time.Nanosecond {
		t.Errorf("Expected 1ns cooldown to be kept, got %v", config.Motion.Cooldown)
	}
}

func TestTopicSetWithDefaults(t *testing.T) {
	topics := TopicSet{Clock: "/sim_clock", Life: ""}.WithDefaults()

	if topics.Clock != "/sim_clock" {
		t.Errorf("Expected /sim_clock, got %s", topics.Clock)
	}
	if topics.Life != "/life_detection" {
		t.Errorf("Expected /life_detection, got %s", topics.Life)
	}
	if topics.Image != "/camera/image_raw/compressed" {
		t.Errorf("Expected default image topic, got %s", topics.Image)
	}
}

func TestTopicMappingHelpers(t *testing.T) {
	config := &Config{}
	config.ApplyDefaults()

	outbound := config.GetTopicMappingsByDirection(DirectionOutbound)
	if len(outbound) != 3 {
		t.Fatalf("Expected 3 outbound mappings (input, life, calibrate), got %d", len(outbound))
	}
	for _, m := range outbound {
		if m.Channel != ChannelInput && m.Channel != ChannelLife && m.Channel != ChannelCalibrate {
			t.Errorf("Unexpected outbound channel %s", m.Channel)
		}
	}

	inbound := config.GetTopicMappingsByDirection(DirectionInbound)
	if len(inbound)+len(outbound) != len(config.ResolvedMappings()) {
		t.Errorf("Expected every mapping to be either inbound or outbound")
	}

	scan, found := config.GetTopicMappingByRosTopic("/scan")
	if !found {
		t.Fatalf("Expected to find /scan mapping")
	}
	if scan.Channel != ChannelScan || scan.MessageType != "sensor_msgs/LaserScan" {
		t.Errorf("Unexpected scan mapping: %+v", scan)
	}

	if _, found := config.GetTopicMappingByRosTopic("/nonexistent"); found {
		t.Errorf("Expected not to find /nonexistent")
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/console"
server:
  http_port: 9090
zeromq:
  subscribe_address: "tcp://localhost:5556"
  publish_bind_address: "tcp://*:7777"
  request_bind_address: "tcp://*:6666"
  message_buffer_size: 2000
data:
  directory: "/data/console"
  teleop_config_file: "my_teleop_config.yaml"
processing:
  high_priority_workers: 2
`
	configPath := filepath.Join(tempDir, BootstrapConfigFilename)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	bootstrapCfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.ZeroMQ.SubscribeAddress != "tcp://localhost:5556" {
		t.Errorf("Unexpected subscribe_address '%s'", bootstrapCfg.ZeroMQ.SubscribeAddress)
	}
	if bootstrapCfg.ZeroMQ.MessageBufferSize != 2000 {
		t.Errorf("Expected message_buffer_size 2000, got %d", bootstrapCfg.ZeroMQ.MessageBufferSize)
	}
	if bootstrapCfg.ZeroMQ.ReconnectIntervalMs != 1000 {
		t.Errorf("Expected default reconnect_interval_ms 1000, got %d", bootstrapCfg.ZeroMQ.ReconnectIntervalMs)
	}
	if bootstrapCfg.Data.TeleopConfigPath() != filepath.Join("/data/console", "my_teleop_config.yaml") {
		t.Errorf("Unexpected teleop config path '%s'", bootstrapCfg.Data.TeleopConfigPath())
	}
	if bootstrapCfg.Processing.HighPriorityWorkers != 2 {
		t.Errorf("Expected high_priority_workers 2, got %d", bootstrapCfg.Processing.HighPriorityWorkers)
	}
	if bootstrapCfg.Processing.StandardPriorityWorkers != 1 {
		t.Errorf("Expected default standard_priority_workers 1, got %d", bootstrapCfg.Processing.StandardPriorityWorkers)
	}
	if bootstrapCfg.Processing.QueueSize != 100 {
		t.Errorf("Expected default queue_size 100, got %d", bootstrapCfg.Processing.QueueSize)
	}
}

func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContentMissing := `
logging:
  level: "info"
zeromq:
  subscribe_address: "tcp://localhost:5556"
  # publish_bind_address missing
  request_bind_address: "tcp://*:6666"
data:
  directory: "/data"
  teleop_config_file: "op_config.yaml"
`
	configPath := filepath.Join(tempDir, BootstrapConfigFilename)
	if err := os.WriteFile(configPath, []byte(bootstrapContentMissing), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	_, err := LoadBootstrapConfig(tempDir)
	if err == nil {
		t.Fatalf("Expected error when loading bootstrap config with missing required fields, but got nil")
	}

	expectedErrorSubstr := "missing required field in bootstrap config: zeromq.publish_bind_address"
	if !strings.Contains(err.Error(), expectedErrorSubstr) {
		t.Errorf("Expected error message to contain '%s', but got: %v", expectedErrorSubstr, err)
	}
}
