package processing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/open-teleop/console/pkg/config"
	"github.com/open-teleop/console/pkg/envelope"
	customlog "github.com/open-teleop/console/pkg/log"
)

// ErrDirectorStopped is returned when routing to a director that is not running.
var ErrDirectorStopped = errors.New("message director is not running")

// MessageDirector routes envelopes to the processing pool of their topic priority
type MessageDirector struct {
	logger           customlog.Logger
	highPriorityPool *ProcessingPool
	standardPool     *ProcessingPool
	lowPriorityPool  *ProcessingPool
	topicRegistry    *TopicRegistry
	processor        MessageProcessor
	resultHandler    ResultHandler
	running          bool
	mu               sync.RWMutex

	defaultQueueSize int
}

// DirectorOptions holds configuration options for the MessageDirector
type DirectorOptions struct {
	DefaultQueueSize int
}

// NewMessageDirector creates a new message director
func NewMessageDirector(
	logger customlog.Logger,
	topicRegistry *TopicRegistry,
	options *DirectorOptions,
) *MessageDirector {
	if options == nil {
		options = &DirectorOptions{DefaultQueueSize: 100}
	}

	return &MessageDirector{
		logger:           logger,
		topicRegistry:    topicRegistry,
		defaultQueueSize: options.DefaultQueueSize,
	}
}

// Initialize creates the processing pools. A single worker per pool keeps
// messages of one topic in arrival order.
func (d *MessageDirector) Initialize(highWorkers, standardWorkers, lowWorkers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initPools(highWorkers, standardWorkers, lowWorkers)
}

func (d *MessageDirector) initPools(highWorkers, standardWorkers, lowWorkers int) {
	d.highPriorityPool = NewProcessingPool(config.PriorityHigh, highWorkers, d.defaultQueueSize, d.logger)
	d.standardPool = NewProcessingPool(config.PriorityStandard, standardWorkers, d.defaultQueueSize, d.logger)
	d.lowPriorityPool = NewProcessingPool(config.PriorityLow, lowWorkers, d.defaultQueueSize, d.logger)

	for _, pool := range d.pools() {
		if d.processor != nil {
			pool.SetProcessor(d.processor)
		}
		if d.resultHandler != nil {
			pool.SetResultHandler(d.resultHandler)
		}
	}

	d.logger.Infof("Message Director initialized with pools: HIGH(%d), STANDARD(%d), LOW(%d)",
		highWorkers, standardWorkers, lowWorkers)
}

func (d *MessageDirector) pools() []*ProcessingPool {
	var pools []*ProcessingPool
	for _, p := range []*ProcessingPool{d.highPriorityPool, d.standardPool, d.lowPriorityPool} {
		if p != nil {
			pools = append(pools, p)
		}
	}
	return pools
}

// SetProcessor sets the message processor function for all pools
func (d *MessageDirector) SetProcessor(processor MessageProcessor) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.processor = processor
	for _, pool := range d.pools() {
		pool.SetProcessor(processor)
	}
}

// SetResultHandler sets the result handler function for all pools
func (d *MessageDirector) SetResultHandler(handler ResultHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resultHandler = handler
	for _, pool := range d.pools() {
		pool.SetResultHandler(handler)
	}
}

// RouteMessage routes an envelope to the pool matching its topic priority.
// Topics missing from the registry are registered with the default priority.
func (d *MessageDirector) RouteMessage(env *envelope.Envelope) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running {
		return ErrDirectorStopped
	}

	d.topicRegistry.UpdateTopicStats(env.Topic, env.TimestampNs)
	priority, _ := d.topicRegistry.GetTopicPriority(env.Topic)

	var successful bool
	switch priority {
	case config.PriorityHigh:
		successful = d.highPriorityPool.ProcessMessage(env)
	case config.PriorityLow:
		successful = d.lowPriorityPool.ProcessMessage(env)
	default:
		successful = d.standardPool.ProcessMessage(env)
	}

	if !successful {
		return fmt.Errorf("failed to enqueue message for topic '%s' (priority: %s)", env.Topic, priority)
	}

	return nil
}

// RouteRaw parses a serialized BridgeMessage and routes it
func (d *MessageDirector) RouteRaw(data []byte) error {
	env, err := envelope.Parse(data)
	if err != nil {
		return err
	}
	return d.RouteMessage(env)
}

// Start starts all processing pools
func (d *MessageDirector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	if d.highPriorityPool == nil {
		d.logger.Warnf("Message Director started before Initialize, using one worker per pool")
		d.initPools(1, 1, 1)
	}

	d.running = true
	d.logger.Infof("Starting Message Director")

	for _, pool := range d.pools() {
		pool.Start()
	}
}

// Stop stops all processing pools
func (d *MessageDirector) Stop() {
	d.mu.Lock()
	running := d.running
	d.running = false
	d.mu.Unlock()

	if !running {
		return
	}

	d.logger.Infof("Stopping Message Director")

	for _, pool := range d.pools() {
		pool.Stop()
	}

	d.logger.Infof("Message Director stopped")
}

// GetPoolMetrics returns metrics for all pools
func (d *MessageDirector) GetPoolMetrics() map[string]PoolMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()

	metrics := make(map[string]PoolMetrics)

	if d.highPriorityPool != nil {
		metrics[config.PriorityHigh] = d.highPriorityPool.GetMetrics()
	}

	if d.standardPool != nil {
		metrics[config.PriorityStandard] = d.standardPool.GetMetrics()
	}

	if d.lowPriorityPool != nil {
		metrics[config.PriorityLow] = d.lowPriorityPool.GetMetrics()
	}

	return metrics
}

// TopicRegistry returns the registry used for routing
func (d *MessageDirector) TopicRegistry() *TopicRegistry {
	return d.topicRegistry
}
