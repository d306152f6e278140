package processing

import (
	"encoding/json"
	"sync"

	customlog "github.com/open-teleop/console/pkg/log"
)

// LoggingResultHandler logs processing results and remembers the last
// failure seen per topic
type LoggingResultHandler struct {
	logger     customlog.Logger
	mu         sync.Mutex
	lastErrors map[string]string
}

// NewLoggingResultHandler creates a new logging result handler
func NewLoggingResultHandler(logger customlog.Logger) *LoggingResultHandler {
	return &LoggingResultHandler{
		logger:     logger,
		lastErrors: make(map[string]string),
	}
}

// HandleResult handles a processed message result
func (h *LoggingResultHandler) HandleResult(result *ProcessResult) {
	if result.Error != nil {
		h.logger.Errorf("Error processing message for topic '%s': %v", result.Topic, result.Error)
		h.mu.Lock()
		h.lastErrors[result.Topic] = result.Error.Error()
		h.mu.Unlock()
		return
	}

	h.logger.Debugf("Successfully processed message for topic '%s' (timestamp: %d)",
		result.Topic, result.Timestamp)

	if result.Data != nil {
		jsonData, err := json.Marshal(result.Data)
		if err == nil {
			if len(jsonData) > 100 {
				h.logger.Debugf("Data: %s...", string(jsonData[:100]))
			} else {
				h.logger.Debugf("Data: %s", string(jsonData))
			}
		}
	}
}

// LastErrors returns the most recent processing error per topic
func (h *LoggingResultHandler) LastErrors() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]string, len(h.lastErrors))
	for k, v := range h.lastErrors {
		out[k] = v
	}
	return out
}

// CreateHandlerFunc creates a ResultHandler function for the ProcessingPool
func (h *LoggingResultHandler) CreateHandlerFunc() ResultHandler {
	return func(processResult *ProcessResult) {
		if processResult == nil {
			h.logger.Errorf("Received nil ProcessResult")
			return
		}
		h.HandleResult(processResult)
	}
}
