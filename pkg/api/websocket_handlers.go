package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/open-teleop/console/domain/teleop"
	customlog "github.com/open-teleop/console/pkg/log"
)

// ControlWebSocketHandler reads operator input samples as JSON and forwards
// each one to the robot as a joystick message.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, session *teleop.Session) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			logClose(logger, "Control", err)
			break
		}
		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var in teleop.JoyInput
		if err := json.Unmarshal(msg, &in); err != nil {
			logger.Warnf("Failed to unmarshal joystick input from WS: %v. Message: %s", err, string(msg))
			if werr := conn.WriteJSON(ControlAck{Error: "invalid input: " + err.Error()}); werr != nil {
				break
			}
			continue
		}

		ack := ControlAck{}
		joy, err := session.SendJoy(in)
		if err != nil {
			logger.Errorf("Failed to send joystick input: %v", err)
			ack.Error = err.Error()
		}
		ack.Throttle = session.Throttle()
		ack.MotionEnabled = session.MotionEnabled()
		ack.Axes = joy.Axes
		ack.Buttons = joy.Buttons

		if err := conn.WriteJSON(ack); err != nil {
			logger.Warnf("Control WS write error: %v", err)
			break
		}
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

// ParticlesWebSocketHandler streams CBOR particle frames from the hub until
// the viewer disconnects.
func ParticlesWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, hub *ParticleHub) {
	id, frames := hub.Subscribe()
	defer hub.Unsubscribe(id)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logClose(logger, "Particles", err)
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				logger.Warnf("Particles WS write error for %s: %v", id, err)
				return
			}
		}
	}
}

func logClose(logger customlog.Logger, name string, err error) {
	switch {
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		logger.Errorf("%s WS read error: %v", name, err)
	case errors.Is(err, websocket.ErrCloseSent), errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET):
		logger.Infof("%s WS connection closed normally.", name)
	default:
		logger.Infof("%s WS connection closed: %v", name, err)
	}
}
