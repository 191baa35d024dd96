package transport

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/opd-ai/rtcbridge"
)

// dataChannelEndpoint adapts a pion data channel to channelEndpoint.
type dataChannelEndpoint struct {
	dc *webrtc.DataChannel

	mu     sync.Mutex
	closed bool
}

func (e *dataChannelEndpoint) bind(sink rtcbridge.ChannelSink) error {
	e.dc.OnOpen(func() {
		sink.HandleOpen()
	})
	e.dc.OnClose(func() {
		// A locally initiated close must not surface as a host
		// closure signal; only the remote side's closure does.
		e.mu.Lock()
		local := e.closed
		e.mu.Unlock()
		if !local {
			sink.HandleMessage(nil)
		}
	})
	e.dc.OnError(func(err error) {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		sink.HandleError(msg)
	})
	e.dc.OnMessage(func(m webrtc.DataChannelMessage) {
		msg := rtcbridge.BinaryMessage(m.Data)
		if m.IsString {
			msg.Kind = rtcbridge.MessageText
		}
		sink.HandleMessage(&msg)
	})
	e.dc.OnBufferedAmountLow(func() {
		sink.HandleBufferedAmountLow()
	})
	return nil
}

func (e *dataChannelEndpoint) send(msg rtcbridge.Message) error {
	if msg.Kind == rtcbridge.MessageText {
		return e.dc.SendText(string(msg.Data))
	}
	return e.dc.Send(msg.Data)
}

func (e *dataChannelEndpoint) bufferedAmount() (int, error) {
	return int(e.dc.BufferedAmount()), nil
}

func (e *dataChannelEndpoint) setThreshold(amount int) error {
	e.dc.SetBufferedAmountLowThreshold(uint64(amount))
	return nil
}

func (e *dataChannelEndpoint) info() (string, string, rtcbridge.Reliability, error) {
	rel := rtcbridge.Reliability{Unordered: !e.dc.Ordered()}
	if lifetime := e.dc.MaxPacketLifeTime(); lifetime != nil {
		d := time.Duration(*lifetime) * time.Millisecond
		rel.MaxPacketLifeTime = &d
	}
	if retransmits := e.dc.MaxRetransmits(); retransmits != nil {
		n := uint32(*retransmits)
		rel.MaxRetransmits = &n
	}
	return e.dc.Label(), e.dc.Protocol(), rel, nil
}

func (e *dataChannelEndpoint) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.dc.Close()
}
