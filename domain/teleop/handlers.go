package teleop

import (
	"fmt"

	"github.com/open-teleop/console/pkg/config"
	"github.com/open-teleop/console/pkg/processing"
	"github.com/open-teleop/console/pkg/rosmsg"
)

// Register binds the session handlers to their channels.
func (s *Session) Register(p *processing.RosMessageProcessor) {
	p.Handle(config.ChannelClock, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		h, ok := msg.(*rosmsg.Header)
		if !ok {
			return nil, unexpected(config.ChannelClock, msg)
		}
		s.OnClock(h)
		return nil, nil
	})

	p.Handle(config.ChannelRPM, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.Float32MultiArray)
		if !ok {
			return nil, unexpected(config.ChannelRPM, msg)
		}
		moving, err := s.OnRPM(m)
		return map[string]interface{}{"moving": moving}, err
	})

	p.Handle(config.ChannelImage, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.CompressedImage)
		if !ok {
			return nil, unexpected(config.ChannelImage, msg)
		}
		res, err := s.OnImage(m)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"hot_pixels":   res.HotPixels,
			"gated":        res.Gated,
			"bootstrapped": res.Bootstrapped,
			"alert":        res.Alert != nil,
		}, nil
	})

	p.Handle(config.ChannelScan, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.LaserScan)
		if !ok {
			return nil, unexpected(config.ChannelScan, msg)
		}
		buf, err := s.OnScan(m)
		if err != nil || buf == nil {
			return nil, err
		}
		return map[string]interface{}{"points": buf.Count, "width": buf.Width, "height": buf.Height}, nil
	})

	p.Handle(config.ChannelToF, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.Float32MultiArray)
		if !ok {
			return nil, unexpected(config.ChannelToF, msg)
		}
		return nil, s.OnToF(m)
	})

	p.Handle(config.ChannelVoltage, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.Float32)
		if !ok {
			return nil, unexpected(config.ChannelVoltage, msg)
		}
		s.OnVoltage(m)
		return nil, nil
	})

	p.Handle(config.ChannelCurrent, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.Float32)
		if !ok {
			return nil, unexpected(config.ChannelCurrent, msg)
		}
		s.OnCurrent(m)
		return nil, nil
	})

	p.Handle(config.ChannelPose, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.PoseStamped)
		if !ok {
			return nil, unexpected(config.ChannelPose, msg)
		}
		s.OnPose(m)
		return nil, nil
	})

	p.Handle(config.ChannelImu, func(msg rosmsg.Message, _ int64) (map[string]interface{}, error) {
		m, ok := msg.(*rosmsg.Imu)
		if !ok {
			return nil, unexpected(config.ChannelImu, msg)
		}
		s.OnImu(m)
		return nil, nil
	})
}

func unexpected(channel string, msg rosmsg.Message) error {
	return fmt.Errorf("channel %s cannot handle %s", channel, msg.TypeName())
}
