package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pebbe/zmq4"

	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeConfigUpdated  = "CONFIG_UPDATED"
	MsgTypeBridgeMessage  = "BRIDGE_MESSAGE"
	MsgTypeAck            = "ACK"
	MsgTypeError          = "ERROR"
)

// pollInterval bounds how long a socket loop waits before rechecking shutdown.
const pollInterval = 500 * time.Millisecond

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// Router accepts serialized BridgeMessages coming from the gateway.
type Router interface {
	RouteRaw(data []byte) error
}

// MessagePublisher sends a payload on a PUB topic.
type MessagePublisher interface {
	PublishMessage(topic string, data []byte) error
}

func newEnvelope(messageType string, data interface{}) ZeroMQMessage {
	return ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      data,
	}
}

func errorResponse(err error) []byte {
	data, _ := json.Marshal(newEnvelope(MsgTypeError, ErrorResponse{Message: err.Error(), Code: 500}))
	return data
}

// MessageReceiver answers requests on a REP socket
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	running    atomic.Bool
	wg         *sync.WaitGroup
}

func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Timeouts keep a half-finished request/reply from blocking shutdown.
	const socketTimeout = 1 * time.Second
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("MessageReceiver initialized on %s", address)

	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		wg:         wg,
	}, nil
}

// Start begins the request loop
func (r *MessageReceiver) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Infof("MessageReceiver started")

		for r.running.Load() {
			sockets, err := r.poller.Poll(pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}

			r.logger.Debugf("Received request (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching message: %v", err)
				response = errorResponse(err)
			}

			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running.Load() {
				r.logger.Errorf("Error sending response: %v", err)
			}
		}
	}()
}

// Stop ends the request loop; the socket is closed by the loop itself
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
}

// MessageSender publishes on a PUB socket
type MessageSender struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("MessageSender initialized on %s", address)

	return &MessageSender{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishMessage sends a two-frame message: topic, then payload
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes requests to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	router   Router
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher. Requests that are
// not JSON are treated as raw BridgeMessages and handed to router.
func NewMessageDispatcher(logger customlog.Logger, router Router) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		router:   router,
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch processes a request and returns the reply
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	if !looksLikeJSON(data) {
		return d.handleRawFlatbuffer(data)
	}

	msgType, err := jsonparser.GetString(data, "type")
	if err != nil {
		// A flatbuffer whose root offset happens to be '{' lands here.
		if d.router != nil {
			return d.handleRawFlatbuffer(data)
		}
		return nil, fmt.Errorf("%w: missing type field: %v", ErrInvalidMessage, err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msgType]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msgType)
	}

	d.logger.Debugf("Dispatching JSON message of type: %s", msgType)
	return handler.HandleMessage(data)
}

func (d *MessageDispatcher) handleRawFlatbuffer(data []byte) ([]byte, error) {
	if d.router == nil {
		return nil, fmt.Errorf("%w: no router for raw bridge messages", ErrInvalidMessage)
	}
	if err := d.router.RouteRaw(data); err != nil {
		return nil, fmt.Errorf("routing raw bridge message: %w", err)
	}
	return json.Marshal(newEnvelope(MsgTypeAck, map[string]interface{}{"status": "OK"}))
}

func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// ZeroMQService owns the console's gateway sockets
type ZeroMQService struct {
	cfg        config.ZeroMQBootstrap
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	subscriber *Subscriber
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    atomic.Bool
	wg         sync.WaitGroup
}

// NewZeroMQService creates the REP, PUB and SUB sockets. Inbound traffic is
// handed to router.
func NewZeroMQService(cfg config.ZeroMQBootstrap, router Router, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &ZeroMQService{
		cfg:        cfg,
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger.WithField("component", "dispatcher"), router),
		logger:     logger,
	}

	s.receiver, err = newMessageReceiver(ctx, cfg.RequestBindAddress, s.dispatcher, logger.WithField("component", "receiver"), &s.wg)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	s.sender, err = newMessageSender(ctx, cfg.PublishBindAddress, logger.WithField("component", "sender"))
	if err != nil {
		s.receiver.socket.Close()
		ctx.Term()
		return nil, err
	}

	s.subscriber, err = newSubscriber(ctx, cfg, router, logger.WithField("component", "subscriber"), &s.wg)
	if err != nil {
		s.receiver.socket.Close()
		s.sender.Close()
		ctx.Term()
		return nil, err
	}

	return s, nil
}

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific message type
func (s *ZeroMQService) RegisterHandlerFunc(messageType string, handler func([]byte) ([]byte, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins serving requests and receiving gateway traffic
func (s *ZeroMQService) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Infof("Starting ZeroMQ service")
	s.receiver.Start()
	s.subscriber.Start()

	return nil
}

// Stop halts every socket loop and terminates the context
func (s *ZeroMQService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.logger.Infof("Stopping ZeroMQ service")

	s.receiver.Stop()
	s.subscriber.Stop()
	s.sender.Close()

	s.wg.Wait()

	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}

	s.logger.Infof("ZeroMQ service stopped")
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running.Load() {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	return publishJSON(s, topic, messageType, data)
}

func publishJSON(pub MessagePublisher, topic string, messageType string, data interface{}) error {
	msgData, err := json.Marshal(newEnvelope(messageType, data))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return pub.PublishMessage(topic, msgData)
}

// Stats returns the subscriber's received and failed message counts
func (s *ZeroMQService) Stats() (received, failed int64) {
	return s.subscriber.Stats()
}
