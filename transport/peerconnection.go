package transport

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
)

// peerEndpoint is the adapter-side view of a peer connection.
type peerEndpoint struct {
	pc *webrtc.PeerConnection

	mu   sync.Mutex
	sink rtcbridge.PeerConnectionSink
}

func (p *peerEndpoint) currentSink() rtcbridge.PeerConnectionSink {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sink
}

// CreatePeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) CreatePeerConnection(config rtcbridge.Configuration) (int, error) {
	cfg := webrtc.Configuration{}
	for _, s := range config.IceServers {
		server := webrtc.ICEServer{URLs: []string{s.URL}}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Password
		}
		cfg.ICEServers = append(cfg.ICEServers, server)
	}

	a.mu.Lock()
	if a.cert != nil {
		cfg.Certificates = []webrtc.Certificate{*a.cert}
	}
	a.mu.Unlock()

	pc, err := a.api.NewPeerConnection(cfg)
	if err != nil {
		return 0, fmt.Errorf("new peer connection: %w", err)
	}

	p := &peerEndpoint{pc: pc}
	a.mu.Lock()
	id := a.nextID()
	a.peers[id] = p
	a.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "Adapter.CreatePeerConnection",
		"id":          id,
		"ice_servers": len(config.IceServers),
	}).Debug("peer connection allocated")
	return id, nil
}

// BindPeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) BindPeerConnection(id int, sink rtcbridge.PeerConnectionSink) error {
	p, err := a.peer(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()

	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			// End-of-candidates marker; not a candidate event.
			return
		}
		init := c.ToJSON()
		mid := ""
		if init.SDPMid != nil {
			mid = *init.SDPMid
		}
		if s := p.currentSink(); s != nil {
			s.HandleLocalCandidate(rtcbridge.Candidate{Candidate: init.Candidate, Mid: mid})
		}
	})
	p.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if s := p.currentSink(); s != nil {
			s.HandleStateChange(mapConnectionState(state))
		}
	})
	p.pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if s := p.currentSink(); s != nil {
			s.HandleIceStateChange(mapIceConnectionState(state))
		}
	})
	p.pc.OnICEGatheringStateChange(func(state webrtc.ICEGathererState) {
		if s := p.currentSink(); s != nil {
			s.HandleGatheringStateChange(mapGatheringState(state))
		}
	})
	p.pc.OnSignalingStateChange(func(state webrtc.SignalingState) {
		if s := p.currentSink(); s != nil {
			s.HandleSignalingStateChange(mapSignalingState(state))
		}
	})
	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		chID := a.addChannel(&dataChannelEndpoint{dc: dc})
		logrus.WithFields(logrus.Fields{
			"function": "Adapter.OnDataChannel",
			"id":       chID,
			"label":    dc.Label(),
		}).Debug("incoming data channel")
		if s := p.currentSink(); s != nil {
			s.HandleDataChannel(chID)
		}
	})
	return nil
}

// DeletePeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) DeletePeerConnection(id int) {
	a.mu.Lock()
	p, ok := a.peers[id]
	delete(a.peers, id)
	a.mu.Unlock()

	if !ok {
		return
	}
	if err := p.pc.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Adapter.DeletePeerConnection",
			"id":       id,
			"error":    err.Error(),
		}).Warn("peer connection close failed")
	}
}

// SetLocalDescription implements rtcbridge.HostAdapter. An empty type
// picks offer or answer from the current signaling state.
func (a *Adapter) SetLocalDescription(id int, descType string) error {
	p, err := a.peer(id)
	if err != nil {
		return err
	}

	if descType == "" {
		if p.pc.SignalingState() == webrtc.SignalingStateHaveRemoteOffer {
			descType = "answer"
		} else {
			descType = "offer"
		}
	}

	var desc webrtc.SessionDescription
	switch descType {
	case "offer":
		desc, err = p.pc.CreateOffer(nil)
	case "answer":
		desc, err = p.pc.CreateAnswer(nil)
	default:
		return fmt.Errorf("%w: unknown description type %q", rtcbridge.ErrInvalidArgument, descType)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", descType, err)
	}
	if err := p.pc.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	if s := p.currentSink(); s != nil {
		s.HandleLocalDescription(rtcbridge.Description{SDP: desc.SDP, Type: desc.Type.String()})
	}
	return nil
}

// SetRemoteDescription implements rtcbridge.HostAdapter.
func (a *Adapter) SetRemoteDescription(id int, desc rtcbridge.Description) error {
	p, err := a.peer(id)
	if err != nil {
		return err
	}
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.NewSDPType(desc.Type),
		SDP:  desc.SDP,
	})
}

// AddRemoteCandidate implements rtcbridge.HostAdapter.
func (a *Adapter) AddRemoteCandidate(id int, cand rtcbridge.Candidate) error {
	p, err := a.peer(id)
	if err != nil {
		return err
	}
	init := webrtc.ICECandidateInit{Candidate: cand.Candidate}
	if cand.Mid != "" {
		mid := cand.Mid
		init.SDPMid = &mid
	}
	return p.pc.AddICECandidate(init)
}

// LocalDescription implements rtcbridge.HostAdapter.
func (a *Adapter) LocalDescription(id int) (rtcbridge.Description, bool) {
	p, err := a.peer(id)
	if err != nil {
		return rtcbridge.Description{}, false
	}
	desc := p.pc.LocalDescription()
	if desc == nil {
		return rtcbridge.Description{}, false
	}
	return rtcbridge.Description{SDP: desc.SDP, Type: desc.Type.String()}, true
}

// RemoteDescription implements rtcbridge.HostAdapter.
func (a *Adapter) RemoteDescription(id int) (rtcbridge.Description, bool) {
	p, err := a.peer(id)
	if err != nil {
		return rtcbridge.Description{}, false
	}
	desc := p.pc.RemoteDescription()
	if desc == nil {
		return rtcbridge.Description{}, false
	}
	return rtcbridge.Description{SDP: desc.SDP, Type: desc.Type.String()}, true
}

// CreateDataChannel implements rtcbridge.HostAdapter.
func (a *Adapter) CreateDataChannel(pcID int, label string, init rtcbridge.DataChannelInit) (int, error) {
	p, err := a.peer(pcID)
	if err != nil {
		return 0, err
	}

	opts := &webrtc.DataChannelInit{}
	if init.Reliability.Unordered {
		ordered := false
		opts.Ordered = &ordered
	}
	if init.Reliability.MaxPacketLifeTime != nil {
		lifetime := uint16(init.Reliability.MaxPacketLifeTime.Milliseconds())
		opts.MaxPacketLifeTime = &lifetime
	}
	if init.Reliability.MaxRetransmits != nil {
		retransmits := uint16(*init.Reliability.MaxRetransmits)
		opts.MaxRetransmits = &retransmits
	}
	if init.Protocol != "" {
		protocol := init.Protocol
		opts.Protocol = &protocol
	}
	if init.Negotiated {
		negotiated := true
		opts.Negotiated = &negotiated
		opts.ID = init.Stream
	}

	dc, err := p.pc.CreateDataChannel(label, opts)
	if err != nil {
		return 0, fmt.Errorf("create data channel: %w", err)
	}
	return a.addChannel(&dataChannelEndpoint{dc: dc}), nil
}
