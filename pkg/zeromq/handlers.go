package zeromq

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
)

// ConfigSource returns the current operational configuration.
type ConfigSource interface {
	GetCurrentConfig() *config.Config
}

// ConfigHandler handles CONFIG_REQUEST messages
type ConfigHandler struct {
	source ConfigSource
	logger customlog.Logger
}

// NewConfigHandler creates a new handler for configuration requests
func NewConfigHandler(source ConfigSource, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		source: source,
		logger: logger,
	}
}

// HandleMessage answers a CONFIG_REQUEST with a CONFIG_RESPONSE carrying the
// current configuration
func (h *ConfigHandler) HandleMessage(data []byte) ([]byte, error) {
	msgType, err := jsonparser.GetString(data, "type")
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msgType != MsgTypeConfigRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msgType)
	}

	cfg := h.source.GetCurrentConfig()
	responseData, err := json.Marshal(newEnvelope(MsgTypeConfigResponse, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	h.logger.Debugf("Sending configuration response (%d bytes)", len(responseData))
	return responseData, nil
}

// BridgeMessageHandler accepts BridgeMessages wrapped in JSON, for gateways
// that can only speak JSON on the request socket:
//
//	{"type": "BRIDGE_MESSAGE", "data": {"topic": "/scan", "base64_data": "..."}}
type BridgeMessageHandler struct {
	router Router
	logger customlog.Logger
}

// NewBridgeMessageHandler creates a new handler for wrapped bridge messages
func NewBridgeMessageHandler(router Router, logger customlog.Logger) *BridgeMessageHandler {
	return &BridgeMessageHandler{
		router: router,
		logger: logger,
	}
}

// HandleMessage decodes the wrapped BridgeMessage and routes it
func (h *BridgeMessageHandler) HandleMessage(data []byte) ([]byte, error) {
	topic, err := jsonparser.GetString(data, "data", "topic")
	if err != nil {
		return nil, fmt.Errorf("%w: missing data.topic", ErrInvalidMessage)
	}
	encoded, err := jsonparser.GetString(data, "data", "base64_data")
	if err != nil {
		return nil, fmt.Errorf("%w: missing data.base64_data", ErrInvalidMessage)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 data for topic %s: %w", topic, err)
	}

	if err := h.router.RouteRaw(raw); err != nil {
		return nil, fmt.Errorf("routing bridge message for topic %s: %w", topic, err)
	}

	h.logger.Debugf("Routed wrapped bridge message for topic %s (%d bytes)", topic, len(raw))

	return json.Marshal(newEnvelope(MsgTypeAck, map[string]interface{}{
		"status": "OK",
		"topic":  topic,
	}))
}
