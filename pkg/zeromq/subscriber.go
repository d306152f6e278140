package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
)

// Subscriber receives the gateway's inbound ROS traffic. Each ZeroMQ message
// is either [topic, BridgeMessage] or a bare BridgeMessage.
type Subscriber struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	router  Router
	logger  customlog.Logger
	running atomic.Bool
	wg      *sync.WaitGroup

	received atomic.Int64
	failed   atomic.Int64
}

func newSubscriber(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, router Router, logger customlog.Logger, wg *sync.WaitGroup) (*Subscriber, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if cfg.MessageBufferSize > 0 {
		if err := socket.SetRcvhwm(cfg.MessageBufferSize); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to set receive high water mark: %w", err)
		}
	}
	if cfg.ReconnectIntervalMs > 0 {
		if err := socket.SetReconnectIvl(time.Duration(cfg.ReconnectIntervalMs) * time.Millisecond); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to set reconnect interval: %w", err)
		}
	}
	if err := socket.SetSubscribe(""); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := socket.Connect(cfg.SubscribeAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.SubscribeAddress, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Subscriber connected to %s", cfg.SubscribeAddress)

	return &Subscriber{
		socket: socket,
		poller: poller,
		router: router,
		logger: logger,
		wg:     wg,
	}, nil
}

// Start begins the receive loop
func (s *Subscriber) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.receiveLoop()
}

// Stop ends the receive loop; the loop closes the socket on exit
func (s *Subscriber) Stop() {
	s.running.Store(false)
}

// Stats returns the number of messages received and the number that failed
// to route.
func (s *Subscriber) Stats() (received, failed int64) {
	return s.received.Load(), s.failed.Load()
}

func (s *Subscriber) receiveLoop() {
	defer s.wg.Done()
	defer s.socket.Close()

	for s.running.Load() {
		sockets, err := s.poller.Poll(pollInterval)
		if err != nil {
			if s.running.Load() {
				s.logger.Errorf("Error polling socket: %v", err)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		parts, err := s.socket.RecvMessageBytes(0)
		if err != nil {
			if s.running.Load() {
				s.logger.Errorf("Error receiving message: %v", err)
			}
			continue
		}

		s.received.Add(1)
		if err := s.route(parts); err != nil {
			s.failed.Add(1)
			s.logger.Warnf("Dropping gateway message: %v", err)
		}
	}
}

func (s *Subscriber) route(parts [][]byte) error {
	switch len(parts) {
	case 1:
		return s.router.RouteRaw(parts[0])
	case 2:
		return s.router.RouteRaw(parts[1])
	default:
		return fmt.Errorf("%w: %d frames", ErrInvalidMessage, len(parts))
	}
}
