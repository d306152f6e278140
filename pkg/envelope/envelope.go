// Package envelope builds and reads the BridgeMessage flatbuffer that wraps
// every message exchanged with the robot gateway.
package envelope

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	message "github.com/open-teleop/console/pkg/flatbuffers/console/message"
)

// Version is written into every envelope built by the console.
const Version byte = 1

// ErrMalformed is returned by Parse for buffers that are not a BridgeMessage.
var ErrMalformed = errors.New("malformed bridge message")

// Envelope is the decoded form of a BridgeMessage.
type Envelope struct {
	Version     byte
	Topic       string
	TimestampNs int64
	ContentType message.ContentType
	Payload     []byte
}

// NewBridgeMessage serializes a BridgeMessage.
func NewBridgeMessage(topic string, timestampNs int64, contentType message.ContentType, payload []byte) []byte {
	builder := flatbuffers.NewBuilder(64 + len(topic) + len(payload))

	topicOffset := builder.CreateString(topic)
	payloadOffset := builder.CreateByteVector(payload)

	message.BridgeMessageStart(builder)
	message.BridgeMessageAddVersion(builder, Version)
	message.BridgeMessageAddTopic(builder, topicOffset)
	message.BridgeMessageAddTimestampNs(builder, timestampNs)
	message.BridgeMessageAddContentType(builder, contentType)
	message.BridgeMessageAddPayload(builder, payloadOffset)
	builder.Finish(message.BridgeMessageEnd(builder))

	return builder.FinishedBytes()
}

// Parse decodes a BridgeMessage. The generated accessors index the buffer
// without bounds checks, so a corrupt buffer surfaces as a recovered panic.
func Parse(data []byte) (env *Envelope, err error) {
	if len(data) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	root := flatbuffers.GetUOffsetT(data)
	if int(root)+flatbuffers.SizeSOffsetT > len(data) {
		return nil, fmt.Errorf("%w: root offset %d outside %d bytes", ErrMalformed, root, len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			env = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	msg := message.GetRootAsBridgeMessage(data, 0)
	return &Envelope{
		Version:     msg.Version(),
		Topic:       string(msg.Topic()),
		TimestampNs: msg.TimestampNs(),
		ContentType: msg.ContentType(),
		Payload:     msg.PayloadBytes(),
	}, nil
}
