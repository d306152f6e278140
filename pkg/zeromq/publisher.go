package zeromq

import (
	"fmt"
	"time"

	"github.com/open-teleop/console/pkg/envelope"
	message "github.com/open-teleop/console/pkg/flatbuffers/console/message"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/rosmsg"
)

// PUB topics used for configuration traffic
const (
	TopicConfigUpdate       = "configuration.update"
	TopicConfigNotification = "configuration.notification"
)

// ConfigPublisher publishes configuration updates to gateways
type ConfigPublisher struct {
	pub    MessagePublisher
	source ConfigSource
	logger customlog.Logger
}

// NewConfigPublisher creates a new publisher for configuration updates
func NewConfigPublisher(pub MessagePublisher, source ConfigSource, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		pub:    pub,
		source: source,
		logger: logger,
	}
}

// PublishConfigUpdate publishes the full current configuration
func (p *ConfigPublisher) PublishConfigUpdate() error {
	cfg := p.source.GetCurrentConfig()
	p.logger.Infof("Publishing configuration update (ID: %s)", cfg.ConfigID)
	return publishJSON(p.pub, TopicConfigUpdate, MsgTypeConfigResponse, cfg)
}

// PublishConfigUpdatedNotification announces that the configuration changed
func (p *ConfigPublisher) PublishConfigUpdatedNotification() error {
	cfg := p.source.GetCurrentConfig()
	p.logger.Infof("Publishing configuration update notification")

	notification := map[string]interface{}{
		"config_id":    cfg.ConfigID,
		"version":      cfg.Version,
		"last_updated": cfg.LastUpdated,
	}
	return publishJSON(p.pub, TopicConfigNotification, MsgTypeConfigUpdated, notification)
}

// RegisterConfigHandlers registers the CONFIG_REQUEST handler and returns a
// publisher for change notifications
func RegisterConfigHandlers(service *ZeroMQService, source ConfigSource, logger customlog.Logger) *ConfigPublisher {
	service.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(source, logger))
	logger.Debugf("Registered configuration handlers and publisher")
	return NewConfigPublisher(service, source, logger)
}

// ROSPublisher wraps ROS messages in BridgeMessages and publishes them under
// their ROS topic
type ROSPublisher struct {
	pub    MessagePublisher
	logger customlog.Logger
	now    func() time.Time
}

// NewROSPublisher creates a publisher for outbound ROS traffic
func NewROSPublisher(pub MessagePublisher, logger customlog.Logger) *ROSPublisher {
	return &ROSPublisher{pub: pub, logger: logger, now: time.Now}
}

// PublishROS serializes msg and publishes it on topic
func (p *ROSPublisher) PublishROS(topic string, msg rosmsg.Message) error {
	payload, err := rosmsg.Marshal(msg)
	if err != nil {
		return err
	}

	data := envelope.NewBridgeMessage(topic, p.now().UnixNano(), message.ContentTypeROS1_MSG, payload)
	if err := p.pub.PublishMessage(topic, data); err != nil {
		return fmt.Errorf("publishing %s on %s: %w", msg.TypeName(), topic, err)
	}

	p.logger.Debugf("Published %s on %s (%d bytes)", msg.TypeName(), topic, len(data))
	return nil
}
