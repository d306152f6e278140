package zeromq

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/console/pkg/config"
	"github.com/open-teleop/console/pkg/envelope"
	message "github.com/open-teleop/console/pkg/flatbuffers/console/message"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/rosmsg"
)

type fakeRouter struct {
	routed [][]byte
	err    error
}

func (r *fakeRouter) RouteRaw(data []byte) error {
	r.routed = append(r.routed, data)
	return r.err
}

type staticSource struct{ cfg *config.Config }

func (s staticSource) GetCurrentConfig() *config.Config { return s.cfg }

type sentMessage struct {
	topic string
	data  []byte
}

type fakePublisher struct {
	sent []sentMessage
	err  error
}

func (p *fakePublisher) PublishMessage(topic string, data []byte) error {
	p.sent = append(p.sent, sentMessage{topic, data})
	return p.err
}

func testSource() staticSource {
	cfg := &config.Config{Version: "1.0", ConfigID: "cfg-1", RobotID: "rover"}
	cfg.ApplyDefaults()
	return staticSource{cfg}
}

func TestDispatchConfigRequest(t *testing.T) {
	d := NewMessageDispatcher(customlog.Discard(), nil)
	d.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(testSource(), customlog.Discard()))

	reply, err := d.Dispatch([]byte(`{"type": "CONFIG_REQUEST", "timestamp": 1}`))
	require.NoError(t, err)

	var resp struct {
		Type string        `json:"type"`
		Data config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.Equal(t, MsgTypeConfigResponse, resp.Type)
	assert.Equal(t, "cfg-1", resp.Data.ConfigID)
	assert.Equal(t, "/scan", resp.Data.Topics.Scan)
}

func TestDispatchErrors(t *testing.T) {
	d := NewMessageDispatcher(customlog.Discard(), nil)

	_, err := d.Dispatch([]byte(`{"type": "NOPE"}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)

	_, err = d.Dispatch([]byte(`{"kind": "CONFIG_REQUEST"}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = d.Dispatch([]byte{0x10, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidMessage, "raw messages need a router")

	var resp ZeroMQMessage
	require.NoError(t, json.Unmarshal(errorResponse(errors.New("boom")), &resp))
	assert.Equal(t, MsgTypeError, resp.Type)
}

func TestDispatchRawFlatbuffer(t *testing.T) {
	router := &fakeRouter{}
	d := NewMessageDispatcher(customlog.Discard(), router)

	data := envelope.NewBridgeMessage("/scan", 1, message.ContentTypeROS1_MSG, []byte{1})
	reply, err := d.Dispatch(data)
	require.NoError(t, err)
	require.Len(t, router.routed, 1)
	assert.Equal(t, data, router.routed[0])

	var resp ZeroMQMessage
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.Equal(t, MsgTypeAck, resp.Type)

	router.err = errors.New("queue full")
	_, err = d.Dispatch(data)
	assert.ErrorIs(t, err, router.err)
}

func TestBridgeMessageHandler(t *testing.T) {
	router := &fakeRouter{}
	d := NewMessageDispatcher(customlog.Discard(), nil)
	d.RegisterHandler(MsgTypeBridgeMessage, NewBridgeMessageHandler(router, customlog.Discard()))

	raw := envelope.NewBridgeMessage("/voltage", 1, message.ContentTypeROS1_MSG, []byte{0, 0, 0x40, 0x41})
	req, err := json.Marshal(ZeroMQMessage{
		Type: MsgTypeBridgeMessage,
		Data: map[string]string{"topic": "/voltage", "base64_data": base64.StdEncoding.EncodeToString(raw)},
	})
	require.NoError(t, err)

	_, err = d.Dispatch(req)
	require.NoError(t, err)
	require.Len(t, router.routed, 1)
	assert.Equal(t, raw, router.routed[0])

	_, err = d.Dispatch([]byte(`{"type": "BRIDGE_MESSAGE", "data": {"topic": "/voltage"}}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = d.Dispatch([]byte(`{"type": "BRIDGE_MESSAGE", "data": {"topic": "/voltage", "base64_data": "%%%"}}`))
	assert.Error(t, err)
}

func TestConfigPublisher(t *testing.T) {
	pub := &fakePublisher{}
	p := NewConfigPublisher(pub, testSource(), customlog.Discard())

	require.NoError(t, p.PublishConfigUpdatedNotification())
	require.NoError(t, p.PublishConfigUpdate())
	require.Len(t, pub.sent, 2)

	assert.Equal(t, TopicConfigNotification, pub.sent[0].topic)
	var note struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.sent[0].data, &note))
	assert.Equal(t, MsgTypeConfigUpdated, note.Type)
	assert.Equal(t, "cfg-1", note.Data["config_id"])

	assert.Equal(t, TopicConfigUpdate, pub.sent[1].topic)
}

func TestROSPublisherWrapsInBridgeMessage(t *testing.T) {
	pub := &fakePublisher{}
	p := NewROSPublisher(pub, customlog.Discard())
	p.now = func() time.Time { return time.Unix(0, 99) }

	require.NoError(t, p.PublishROS("/life_detection", &rosmsg.String{Data: "hello"}))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "/life_detection", pub.sent[0].topic)

	env, err := envelope.Parse(pub.sent[0].data)
	require.NoError(t, err)
	assert.Equal(t, "/life_detection", env.Topic)
	assert.Equal(t, int64(99), env.TimestampNs)
	assert.Equal(t, message.ContentTypeROS1_MSG, env.ContentType)

	decoded, err := rosmsg.Unmarshal(rosmsg.TypeString, env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded.(*rosmsg.String).Data)

	pub.err = ErrServiceClosed
	assert.ErrorIs(t, p.PublishROS("/joy", &rosmsg.Joy{}), ErrServiceClosed)
}

func TestSubscriberRouteFrames(t *testing.T) {
	router := &fakeRouter{}
	s := &Subscriber{router: router, logger: customlog.Discard()}

	require.NoError(t, s.route([][]byte{[]byte("a")}))
	require.NoError(t, s.route([][]byte{[]byte("/scan"), []byte("b")}))
	assert.ErrorIs(t, s.route([][]byte{nil, nil, nil}), ErrInvalidMessage)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, router.routed)
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, looksLikeJSON([]byte("  {\"type\":1}")))
	assert.False(t, looksLikeJSON([]byte{0x0c, 0, 0, 0}))
	assert.False(t, looksLikeJSON(nil))
}
