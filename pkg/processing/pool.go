package processing

import (
	"sync"
	"time"

	"github.com/open-teleop/console/pkg/envelope"
	customlog "github.com/open-teleop/console/pkg/log"
)

// ProcessResult is the outcome of processing one envelope
type ProcessResult struct {
	Topic     string
	Channel   string
	Data      map[string]interface{}
	Timestamp int64
	Error     error
}

// ResultHandler is a function that handles processed results
type ResultHandler func(result *ProcessResult)

// MessageProcessor processes envelopes in a worker
type MessageProcessor func(env *envelope.Envelope) (map[string]interface{}, error)

// ProcessingPool is a bounded queue served by a fixed set of workers
type ProcessingPool struct {
	name          string
	workerCount   int
	logger        customlog.Logger
	messageQueue  chan *envelope.Envelope
	running       bool
	closed        bool
	wg            sync.WaitGroup
	mu            sync.Mutex
	processor     MessageProcessor
	resultHandler ResultHandler
	queueSize     int
	metrics       *PoolMetrics
}

// PoolMetrics tracks metrics for a processing pool
type PoolMetrics struct {
	ProcessedCount    int64 `json:"processed"`
	ErrorCount        int64 `json:"errors"`
	QueuedCount       int64 `json:"queued"`
	DroppedCount      int64 `json:"dropped"`
	LastProcessedTime int64 `json:"last_processed_ns"`
	ProcessingTimeAvg int64 `json:"avg_us"` // in microseconds
	ProcessingTimeMax int64 `json:"max_us"` // in microseconds
	mu                sync.Mutex
}

// NewProcessingPool creates a new processing pool
func NewProcessingPool(
	name string,
	workerCount int,
	queueSize int,
	logger customlog.Logger,
) *ProcessingPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &ProcessingPool{
		name:         name,
		workerCount:  workerCount,
		queueSize:    queueSize,
		logger:       logger.WithField("pool", name),
		messageQueue: make(chan *envelope.Envelope, queueSize),
		metrics:      &PoolMetrics{},
	}
}

// SetProcessor sets the message processor function
func (p *ProcessingPool) SetProcessor(processor MessageProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processor = processor
}

// SetResultHandler sets the result handler function
func (p *ProcessingPool) SetResultHandler(handler ResultHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultHandler = handler
}

// ProcessMessage enqueues an envelope without blocking. It returns false when
// the pool is stopped or the queue is full; full-queue drops are counted.
func (p *ProcessingPool) ProcessMessage(env *envelope.Envelope) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Warnf("%s pool not running, discarding message for %s", p.name, env.Topic)
		return false
	}

	select {
	case p.messageQueue <- env:
		p.metrics.mu.Lock()
		p.metrics.QueuedCount++
		p.metrics.mu.Unlock()
		return true
	default:
		p.metrics.mu.Lock()
		p.metrics.DroppedCount++
		p.metrics.mu.Unlock()
		p.logger.Warnf("%s pool queue is full, discarding message for %s", p.name, env.Topic)
		return false
	}
}

// Start starts the processing pool workers. A stopped pool cannot be restarted.
func (p *ProcessingPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.closed {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s priority pool with %d workers", p.name, p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue and waits for the workers to exit
func (p *ProcessingPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.closed = true
	close(p.messageQueue)
	p.mu.Unlock()

	p.logger.Infof("Stopping %s priority pool", p.name)
	p.wg.Wait()
	p.logger.Infof("%s priority pool stopped", p.name)

	p.logMetrics()
}

func (p *ProcessingPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugf("%s pool worker %d started", p.name, id)

	for env := range p.messageQueue {
		p.mu.Lock()
		processor := p.processor
		resultHandler := p.resultHandler
		p.mu.Unlock()

		if processor == nil {
			p.logger.Errorf("No message processor set for %s pool", p.name)
			continue
		}

		startTime := time.Now()
		result, err := processor(env)
		processingTime := time.Since(startTime).Microseconds()

		p.metrics.mu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.LastProcessedTime = time.Now().UnixNano()
		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			// Simple moving average
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}
		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}
		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metrics.mu.Unlock()

		if resultHandler != nil {
			resultHandler(&ProcessResult{
				Topic:     env.Topic,
				Data:      result,
				Timestamp: env.TimestampNs,
				Error:     err,
			})
		} else if err != nil {
			p.logger.Errorf("Error processing message for %s in %s pool: %v", env.Topic, p.name, err)
		}
	}

	p.logger.Debugf("%s pool worker %d stopped", p.name, id)
}

// GetMetrics returns a copy of the current metrics
func (p *ProcessingPool) GetMetrics() PoolMetrics {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return PoolMetrics{
		ProcessedCount:    p.metrics.ProcessedCount,
		ErrorCount:        p.metrics.ErrorCount,
		QueuedCount:       p.metrics.QueuedCount,
		DroppedCount:      p.metrics.DroppedCount,
		LastProcessedTime: p.metrics.LastProcessedTime,
		ProcessingTimeAvg: p.metrics.ProcessingTimeAvg,
		ProcessingTimeMax: p.metrics.ProcessingTimeMax,
	}
}

func (p *ProcessingPool) logMetrics() {
	metrics := p.GetMetrics()

	p.logger.Infof("%s pool metrics: processed=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, metrics.ProcessedCount, metrics.ErrorCount, metrics.DroppedCount,
		metrics.ProcessingTimeAvg, metrics.ProcessingTimeMax)
}

// GetName returns the pool name
func (p *ProcessingPool) GetName() string {
	return p.name
}

// GetQueueLength returns the current length of the message queue
func (p *ProcessingPool) GetQueueLength() int {
	return len(p.messageQueue)
}

// GetQueueCapacity returns the capacity of the message queue
func (p *ProcessingPool) GetQueueCapacity() int {
	return p.queueSize
}
