package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapConfigFilename is the file LoadBootstrapConfig reads from the config directory.
const BootstrapConfigFilename = "console_config.yaml"

// BootstrapConfig holds the initial configuration loaded from console_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig         `yaml:"logging"`
	Server     BootstrapServerConfig `yaml:"server"`
	ZeroMQ     ZeroMQBootstrap       `yaml:"zeromq"`
	Data       DataConfig            `yaml:"data"`
	Processing ProcessingConfig      `yaml:"processing"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// BootstrapServerConfig holds HTTP listener settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds the gateway-facing socket addresses.
//
// The console connects a SUB socket to the gateway's publisher for inbound ROS
// traffic, binds a PUB socket for outbound joystick/alert traffic and binds a
// REP socket answering CONFIG_REQUEST messages.
type ZeroMQBootstrap struct {
	SubscribeAddress    string `yaml:"subscribe_address"`
	PublishBindAddress  string `yaml:"publish_bind_address"`
	RequestBindAddress  string `yaml:"request_bind_address"`
	MessageBufferSize   int    `yaml:"message_buffer_size"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
}

// ProcessingConfig holds message processing worker configuration from bootstrap
type ProcessingConfig struct {
	HighPriorityWorkers     int `yaml:"high_priority_workers"`
	StandardPriorityWorkers int `yaml:"standard_priority_workers"`
	LowPriorityWorkers      int `yaml:"low_priority_workers"`
	QueueSize               int `yaml:"queue_size"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory            string `yaml:"directory"`
	TeleopConfigFilename string `yaml:"teleop_config_file"`
}

// TeleopConfigPath joins the data directory and the operational config filename.
func (d DataConfig) TeleopConfigPath() string {
	return filepath.Join(d.Directory, d.TeleopConfigFilename)
}

// LoadBootstrapConfig loads the bootstrap configuration from console_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapConfigFilename)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	required := []struct {
		value string
		path  string
	}{
		{bootstrapCfg.ZeroMQ.SubscribeAddress, "zeromq.subscribe_address"},
		{bootstrapCfg.ZeroMQ.PublishBindAddress, "zeromq.publish_bind_address"},
		{bootstrapCfg.ZeroMQ.RequestBindAddress, "zeromq.request_bind_address"},
		{bootstrapCfg.Data.Directory, "data.directory"},
		{bootstrapCfg.Data.TeleopConfigFilename, "data.teleop_config_file"},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required field in bootstrap config: %s", r.path)
		}
	}

	bootstrapCfg.applyDefaults()
	return &bootstrapCfg, nil
}

func (b *BootstrapConfig) applyDefaults() {
	if b.Logging.Level == "" {
		b.Logging.Level = "info"
	}
	if b.Server.HTTPPort == 0 {
		b.Server.HTTPPort = 8080
	}
	if b.ZeroMQ.MessageBufferSize == 0 {
		b.ZeroMQ.MessageBufferSize = 1000
	}
	if b.ZeroMQ.ReconnectIntervalMs == 0 {
		b.ZeroMQ.ReconnectIntervalMs = 1000
	}
	// One worker per pool keeps messages of a priority class in arrival order.
	if b.Processing.HighPriorityWorkers == 0 {
		b.Processing.HighPriorityWorkers = 1
	}
	if b.Processing.StandardPriorityWorkers == 0 {
		b.Processing.StandardPriorityWorkers = 1
	}
	if b.Processing.LowPriorityWorkers == 0 {
		b.Processing.LowPriorityWorkers = 1
	}
	if b.Processing.QueueSize == 0 {
		b.Processing.QueueSize = 100
	}
}
