package api

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/open-teleop/console/domain/particles"
	customlog "github.com/open-teleop/console/pkg/log"
)

// clientBuffer is the number of frames a slow viewer may lag behind before
// frames are dropped for it.
const clientBuffer = 4

// ParticleHub fans packed point clouds out to every connected viewer as CBOR
// frames. A new viewer immediately receives the latest frame.
type ParticleHub struct {
	logger customlog.Logger

	mu      sync.RWMutex
	clients map[string]chan []byte
	latest  []byte
	seq     uint64
	dropped uint64
}

// NewParticleHub creates an empty hub.
func NewParticleHub(logger customlog.Logger) *ParticleHub {
	return &ParticleHub{
		logger:  logger.WithField("component", "particle_hub"),
		clients: make(map[string]chan []byte),
	}
}

// Subscribe registers a viewer and returns its id and frame channel.
func (h *ParticleHub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, clientBuffer)

	h.mu.Lock()
	h.clients[id] = ch
	if h.latest != nil {
		ch <- h.latest
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Infof("Particle viewer %s connected. Total: %d", id, total)
	return id, ch
}

// Unsubscribe removes a viewer and closes its channel.
func (h *ParticleHub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(ch)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Infof("Particle viewer %s disconnected. Total: %d", id, total)
	}
}

// PublishParticles encodes buf and queues it for every viewer.
func (h *ParticleHub) PublishParticles(buf *particles.PackedBuffer) {
	if buf == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	data, err := cbor.Marshal(NewParticleFrame(h.seq, buf))
	if err != nil {
		h.logger.Errorf("Failed to encode particle frame: %v", err)
		return
	}
	h.latest = data

	for id, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.dropped++
			h.logger.Debugf("Dropped particle frame %d for slow viewer %s", h.seq, id)
		}
	}
}

// ClientCount returns the number of connected viewers.
func (h *ParticleHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubStats summarizes hub activity.
type HubStats struct {
	Clients int    `json:"clients"`
	Frames  uint64 `json:"frames"`
	Dropped uint64 `json:"dropped"`
}

// Stats returns the hub counters.
func (h *ParticleHub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{Clients: len(h.clients), Frames: h.seq, Dropped: h.dropped}
}
