package webrtc

import (
	"github.com/pion/webrtc/v3"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

type dataChannel struct {
	dc *webrtc.DataChannel
}

var _ transport.DataChannel = (*dataChannel)(nil)

func (c *dataChannel) Label() string { return c.dc.Label() }

func (c *dataChannel) Send(data []byte) error { return c.dc.Send(data) }

func (c *dataChannel) Close() error { return c.dc.Close() }

func (c *dataChannel) BufferedAmount() uint64 { return c.dc.BufferedAmount() }

func (c *dataChannel) ReadyState() transport.ChannelState {
	return channelState(c.dc.ReadyState())
}

func (c *dataChannel) OnOpen(f func()) { c.dc.OnOpen(f) }

func (c *dataChannel) OnClose(f func()) { c.dc.OnClose(f) }

func (c *dataChannel) OnError(f func(err error)) { c.dc.OnError(f) }

func (c *dataChannel) OnMessage(f func(data []byte)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		f(msg.Data)
	})
}

func channelState(s webrtc.DataChannelState) transport.ChannelState {
	switch s {
	case webrtc.DataChannelStateOpen:
		return transport.ChannelOpen
	case webrtc.DataChannelStateClosing:
		return transport.ChannelClosing
	case webrtc.DataChannelStateClosed:
		return transport.ChannelClosed
	default:
		return transport.ChannelConnecting
	}
}
