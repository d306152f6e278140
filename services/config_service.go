package services

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/open-teleop/console/domain/particles"
	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
	"gopkg.in/yaml.v3"
)

// ErrValidation is wrapped by every error caused by a rejected configuration.
var ErrValidation = errors.New("configuration validation failed")

// ConfigPublisher announces that the operational configuration changed.
type ConfigPublisher interface {
	PublishConfigUpdatedNotification() error
}

// UpdateListener is called with the new configuration after every successful
// load or update.
type UpdateListener func(cfg *config.Config)

// TeleopConfigService manages the operational console configuration.
type TeleopConfigService interface {
	LoadConfig() error
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	PersistConfig(yamlData []byte) error
	SetPublisher(p ConfigPublisher)
	OnUpdate(listener UpdateListener)
}

type teleopConfigService struct {
	operationalConfigPath string
	logger                customlog.Logger
	configPublisher       ConfigPublisher
	listeners             []UpdateListener
	currentConfig         *config.Config
	mu                    sync.RWMutex
}

// NewTeleopConfigService creates a service backed by the YAML file at
// operationalConfigPath. A missing or unreadable file leaves the service
// running on the built-in defaults until a valid update arrives.
func NewTeleopConfigService(operationalConfigPath string, logger customlog.Logger) (TeleopConfigService, error) {
	if operationalConfigPath == "" {
		return nil, fmt.Errorf("operational configuration path cannot be empty")
	}
	if logger == nil {
		logger = customlog.Discard()
	}

	service := &teleopConfigService{
		operationalConfigPath: operationalConfigPath,
		logger:                logger.WithField("component", "config"),
	}

	if err := service.LoadConfig(); err != nil {
		logger.Warnf("Initial load of operational config '%s' failed: %v. Using defaults.", operationalConfigPath, err)
		service.currentConfig = DefaultConfig()
		return service, nil
	}

	logger.Infof("TeleopConfigService initialized for path: %s", operationalConfigPath)
	return service, nil
}

// DefaultConfig returns an operational configuration with every field at its
// default value.
func DefaultConfig() *config.Config {
	cfg := &config.Config{
		Version:  "1.0",
		ConfigID: "default",
		RobotID:  "unknown",
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads the operational config file from disk and replaces the
// current configuration. The previous configuration is kept on failure.
func (s *teleopConfigService) LoadConfig() error {
	s.logger.Infof("Loading operational configuration from: %s", s.operationalConfigPath)
	data, err := os.ReadFile(s.operationalConfigPath)
	if err != nil {
		return fmt.Errorf("error reading operational config file '%s': %w", s.operationalConfigPath, err)
	}

	cfg, err := parseAndValidate(data)
	if err != nil {
		return fmt.Errorf("operational config file '%s': %w", s.operationalConfigPath, err)
	}

	s.mu.Lock()
	s.currentConfig = cfg
	listeners := append([]UpdateListener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Infof("Loaded operational configuration ID: %s, Version: %s", cfg.ConfigID, cfg.Version)
	notify(listeners, cfg)
	return nil
}

// GetCurrentConfig returns the active configuration. Callers must treat it as
// read-only; changes go through UpdateConfig.
func (s *teleopConfigService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML returns the operational config file as stored on disk,
// or the active configuration marshalled to YAML when no file exists yet.
func (s *teleopConfigService) GetCurrentConfigYAML() ([]byte, error) {
	data, err := os.ReadFile(s.operationalConfigPath)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading operational config file '%s': %w", s.operationalConfigPath, err)
	}

	cfg := s.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("no operational configuration loaded")
	}
	return yaml.Marshal(cfg)
}

// UpdateConfig validates, persists and applies a new configuration, then
// notifies listeners and the publisher.
func (s *teleopConfigService) UpdateConfig(newConfigYAML []byte) error {
	newCfg, err := parseAndValidate(newConfigYAML)
	if err != nil {
		s.logger.Warnf("Rejected configuration update: %v", err)
		return err
	}

	s.mu.Lock()
	if err := s.persistConfigUnlocked(newConfigYAML); err != nil {
		s.mu.Unlock()
		return err
	}

	oldID := "N/A"
	if s.currentConfig != nil {
		oldID = s.currentConfig.ConfigID
	}
	s.currentConfig = newCfg
	publisher := s.configPublisher
	listeners := append([]UpdateListener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Infof("Updated operational configuration. ID %s -> %s, Version: %s", oldID, newCfg.ConfigID, newCfg.Version)
	notify(listeners, newCfg)

	if publisher != nil {
		if err := publisher.PublishConfigUpdatedNotification(); err != nil {
			s.logger.Warnf("Failed to publish config update notification: %v", err)
		}
	}
	return nil
}

// PersistConfig writes the given YAML data to the operational config file.
func (s *teleopConfigService) PersistConfig(yamlData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistConfigUnlocked(yamlData)
}

func (s *teleopConfigService) persistConfigUnlocked(yamlData []byte) error {
	if err := os.WriteFile(s.operationalConfigPath, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing operational config file '%s': %w", s.operationalConfigPath, err)
	}
	s.logger.Debugf("Persisted configuration to %s", s.operationalConfigPath)
	return nil
}

// SetPublisher injects the notification publisher after construction.
func (s *teleopConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPublisher = p
}

// OnUpdate registers a listener for configuration changes.
func (s *teleopConfigService) OnUpdate(listener UpdateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func notify(listeners []UpdateListener, cfg *config.Config) {
	for _, l := range listeners {
		l(cfg)
	}
}

func parseAndValidate(data []byte) (*config.Config, error) {
	cfg, err := config.ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *config.Config) error {
	if cfg.ConfigID == "" || cfg.Version == "" || cfg.RobotID == "" {
		return fmt.Errorf("%w: missing required fields (config_id, version, robot_id)", ErrValidation)
	}

	for _, m := range cfg.TopicMappings {
		if _, ok := cfg.TopicForChannel(m.Channel); !ok {
			return fmt.Errorf("%w: unknown channel %q in topic_mappings", ErrValidation, m.Channel)
		}
		switch m.Priority {
		case "", config.PriorityHigh, config.PriorityStandard, config.PriorityLow:
		default:
			return fmt.Errorf("%w: invalid priority %q for channel %s", ErrValidation, m.Priority, m.Channel)
		}
		switch m.Direction {
		case "", config.DirectionInbound, config.DirectionOutbound:
		default:
			return fmt.Errorf("%w: invalid direction %q for channel %s", ErrValidation, m.Direction, m.Channel)
		}
	}

	if cfg.Motion.Stride < 0 || cfg.Motion.MotionPixelThreshold < 0 {
		return fmt.Errorf("%w: motion stride and pixel threshold must be positive", ErrValidation)
	}
	if cfg.Motion.MaxFrameDimension < 0 {
		return fmt.Errorf("%w: motion max_frame_dimension must be positive", ErrValidation)
	}
	if cfg.Particles.Resolution > particles.MaxRowWidthLimit {
		return fmt.Errorf("%w: particles resolution %d exceeds %d",
			ErrValidation, cfg.Particles.Resolution, particles.MaxRowWidthLimit)
	}
	if cfg.Joystick.MinThrottle > cfg.Joystick.MaxThrottle {
		return fmt.Errorf("%w: joystick min_throttle %.2f exceeds max_throttle %.2f",
			ErrValidation, cfg.Joystick.MinThrottle, cfg.Joystick.MaxThrottle)
	}
	return nil
}
