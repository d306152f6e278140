package processing

import (
	"sort"
	"sync"

	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
)

// TopicInfo holds metadata for a ROS topic
type TopicInfo struct {
	RosTopic     string `json:"ros_topic"`
	Channel      string `json:"channel,omitempty"`
	MessageType  string `json:"message_type,omitempty"`
	Priority     string `json:"priority"`
	Direction    string `json:"direction"`
	StatCount    int64  `json:"count"`
	LastReceived int64  `json:"last_received"`
}

// TopicRegistry maintains information about topics
type TopicRegistry struct {
	logger          customlog.Logger
	topics          map[string]*TopicInfo
	defaultPriority string
	mu              sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger:          logger,
		topics:          make(map[string]*TopicInfo),
		defaultPriority: config.PriorityStandard,
	}
}

// LoadFromConfig replaces the registry contents with the resolved channel
// mappings of cfg. Statistics of topics that survive the reload are kept.
func (r *TopicRegistry) LoadFromConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.topics
	r.topics = make(map[string]*TopicInfo)

	if cfg.Defaults.Priority != "" {
		r.defaultPriority = cfg.Defaults.Priority
	}

	for _, mapping := range cfg.ResolvedMappings() {
		info := &TopicInfo{
			RosTopic:    mapping.RosTopic,
			Channel:     mapping.Channel,
			MessageType: mapping.MessageType,
			Priority:    mapping.Priority,
			Direction:   mapping.Direction,
		}
		if old, ok := previous[mapping.RosTopic]; ok {
			info.StatCount = old.StatCount
			info.LastReceived = old.LastReceived
		}
		r.topics[mapping.RosTopic] = info
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// GetTopicPriority gets the priority for a topic
func (r *TopicRegistry) GetTopicPriority(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return "", false
	}

	return info.Priority, true
}

// GetTopicInfo returns a copy of the information held for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// UpdateTopicStats records a message for topic. Unknown topics are
// registered with the default priority and no channel.
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{
			RosTopic:  topic,
			Priority:  r.defaultPriority,
			Direction: config.DirectionInbound,
		}
		r.topics[topic] = info
	}

	info.StatCount++
	info.LastReceived = timestamp
}

// GetMessageType gets the message type for a topic
func (r *TopicRegistry) GetMessageType(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists || info.MessageType == "" {
		return "", false
	}

	return info.MessageType, true
}

// GetAllTopics returns the registered topics in sorted order
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	return topics
}

// GetTopicStats returns a snapshot of every registered topic
func (r *TopicRegistry) GetTopicStats() map[string]TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]TopicInfo, len(r.topics))
	for topic, info := range r.topics {
		stats[topic] = *info
	}

	return stats
}
