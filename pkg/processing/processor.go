package processing

import (
	"fmt"
	"sync"

	"github.com/open-teleop/console/pkg/config"
	"github.com/open-teleop/console/pkg/envelope"
	message "github.com/open-teleop/console/pkg/flatbuffers/console/message"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/rosmsg"
)

// ChannelHandler consumes a decoded message of one console channel. The
// returned map summarizes what was done and ends up in the ProcessResult.
type ChannelHandler func(msg rosmsg.Message, timestampNs int64) (map[string]interface{}, error)

// RosMessageProcessor decodes ROS payloads by their registered message type
// and hands them to the handler bound to the topic's channel
type RosMessageProcessor struct {
	logger        customlog.Logger
	topicRegistry *TopicRegistry
	handlers      map[string]ChannelHandler
	mu            sync.RWMutex
}

// NewRosMessageProcessor creates a new ROS message processor
func NewRosMessageProcessor(logger customlog.Logger, topicRegistry *TopicRegistry) *RosMessageProcessor {
	return &RosMessageProcessor{
		logger:        logger,
		topicRegistry: topicRegistry,
		handlers:      make(map[string]ChannelHandler),
	}
}

// Handle binds a handler to a console channel, replacing any previous one
func (p *RosMessageProcessor) Handle(channel string, handler ChannelHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[channel] = handler
}

// ProcessMessage decodes env and dispatches it
func (p *RosMessageProcessor) ProcessMessage(env *envelope.Envelope) (map[string]interface{}, error) {
	info, exists := p.topicRegistry.GetTopicInfo(env.Topic)
	if !exists || info.MessageType == "" {
		return nil, fmt.Errorf("unknown message type for topic '%s'", env.Topic)
	}

	if env.ContentType != message.ContentTypeROS1_MSG {
		p.logger.Debugf("Skipping %s content on topic '%s'", env.ContentType, env.Topic)
		return map[string]interface{}{"topic": env.Topic, "skipped": env.ContentType.String()}, nil
	}

	if info.Direction == config.DirectionOutbound {
		p.logger.Debugf("Ignoring echo of outbound topic '%s'", env.Topic)
		return nil, nil
	}

	p.logger.Debugf("Processing ROS message for topic '%s' (type: %s, %d bytes)",
		env.Topic, info.MessageType, len(env.Payload))

	msg, err := rosmsg.Unmarshal(info.MessageType, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message for topic '%s': %w", env.Topic, err)
	}

	p.mu.RLock()
	handler := p.handlers[info.Channel]
	p.mu.RUnlock()

	result := map[string]interface{}{
		"topic":     env.Topic,
		"channel":   info.Channel,
		"type":      info.MessageType,
		"timestamp": env.TimestampNs,
	}
	if handler == nil {
		return result, nil
	}

	data, err := handler(msg, env.TimestampNs)
	if err != nil {
		return nil, fmt.Errorf("handling %s message on '%s': %w", info.Channel, env.Topic, err)
	}
	if data != nil {
		result["data"] = data
	}
	return result, nil
}

// CreateProcessorFunc creates a MessageProcessor function that can be used with the MessageDirector
func (p *RosMessageProcessor) CreateProcessorFunc() MessageProcessor {
	return p.ProcessMessage
}
