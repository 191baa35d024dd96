package rtcbridge

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// PeerConnection is a WebRTC peer connection resource. Negotiation
// itself (ICE, SDP, transports) is the host adapter's business; this
// type tracks the observable states, relays negotiation calls and
// carries the single-slot event callbacks.
type PeerConnection struct {
	adapter HostAdapter

	mu sync.Mutex
	id int

	state          State
	iceState       IceState
	gatheringState GatheringState
	signalingState SignalingState

	dataChannelCB      func(dc *DataChannel)
	localDescriptionCB func(desc Description)
	localCandidateCB   func(cand Candidate)
	stateCB            func(state State)
	iceStateCB         func(state IceState)
	gatheringStateCB   func(state GatheringState)
	signalingStateCB   func(state SignalingState)
}

// NewPeerConnection creates a peer connection through the adapter. A
// configuration with zero ICE servers is valid.
func NewPeerConnection(adapter HostAdapter, config Configuration) (*PeerConnection, error) {
	id, err := adapter.CreatePeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	pc := &PeerConnection{adapter: adapter, id: id}
	if err := adapter.BindPeerConnection(id, pc); err != nil {
		adapter.DeletePeerConnection(id)
		return nil, fmt.Errorf("bind peer connection: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewPeerConnection",
		"id":          id,
		"ice_servers": len(config.IceServers),
	}).Debug("peer connection created")
	return pc, nil
}

// Close releases the underlying transport resource. Idempotent.
func (p *PeerConnection) Close() {
	p.mu.Lock()
	id := p.id
	p.id = 0
	p.mu.Unlock()

	if id != 0 {
		p.adapter.DeletePeerConnection(id)
	}
}

// IsClosed reports whether the transport resource has been released.
func (p *PeerConnection) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id == 0
}

// CreateDataChannel opens an outgoing data channel on this connection.
// Setting both MaxPacketLifeTime and MaxRetransmits is contradictory
// and rejected with ErrInvalidArgument.
func (p *PeerConnection) CreateDataChannel(label string, init DataChannelInit) (*DataChannel, error) {
	if init.Reliability.MaxPacketLifeTime != nil && init.Reliability.MaxRetransmits != nil {
		return nil, fmt.Errorf("%w: both maxPacketLifeTime and maxRetransmits are set", ErrInvalidArgument)
	}

	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return nil, ErrClosed
	}

	adapterID, err := p.adapter.CreateDataChannel(id, label, init)
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	return NewDataChannel(p.adapter, adapterID)
}

// SetLocalDescription asks the adapter to produce and apply a local
// description of the given type. An empty type lets the adapter pick
// offer or answer from the signaling state.
func (p *PeerConnection) SetLocalDescription(descType string) error {
	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return ErrClosed
	}
	return p.adapter.SetLocalDescription(id, descType)
}

// SetRemoteDescription applies a remote description.
func (p *PeerConnection) SetRemoteDescription(desc Description) error {
	if desc.SDP == "" {
		return fmt.Errorf("%w: empty remote description", ErrInvalidArgument)
	}

	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return ErrClosed
	}
	return p.adapter.SetRemoteDescription(id, desc)
}

// AddRemoteCandidate applies a remote ICE candidate.
func (p *PeerConnection) AddRemoteCandidate(cand Candidate) error {
	if cand.Candidate == "" {
		return fmt.Errorf("%w: empty remote candidate", ErrInvalidArgument)
	}

	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return ErrClosed
	}
	return p.adapter.AddRemoteCandidate(id, cand)
}

// LocalDescription returns the current local description, or
// ErrNotAvailable if none has been produced yet.
func (p *PeerConnection) LocalDescription() (Description, error) {
	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return Description{}, ErrClosed
	}

	desc, ok := p.adapter.LocalDescription(id)
	if !ok {
		return Description{}, fmt.Errorf("%w: no local description", ErrNotAvailable)
	}
	return desc, nil
}

// RemoteDescription returns the current remote description, or
// ErrNotAvailable if none has been applied yet.
func (p *PeerConnection) RemoteDescription() (Description, error) {
	p.mu.Lock()
	id := p.id
	p.mu.Unlock()
	if id == 0 {
		return Description{}, ErrClosed
	}

	desc, ok := p.adapter.RemoteDescription(id)
	if !ok {
		return Description{}, fmt.Errorf("%w: no remote description", ErrNotAvailable)
	}
	return desc, nil
}

// State returns the last observed connection state.
func (p *PeerConnection) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IceState returns the last observed ICE agent state.
func (p *PeerConnection) IceState() IceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.iceState
}

// GatheringState returns the last observed gathering state.
func (p *PeerConnection) GatheringState() GatheringState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gatheringState
}

// SignalingState returns the last observed signaling state.
func (p *PeerConnection) SignalingState() SignalingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signalingState
}

// OnDataChannel sets the callback for incoming data channels. Nil
// clears it; without a callback incoming channels are dropped.
func (p *PeerConnection) OnDataChannel(cb func(dc *DataChannel)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataChannelCB = cb
}

// OnLocalDescription sets the callback for locally produced
// descriptions.
func (p *PeerConnection) OnLocalDescription(cb func(desc Description)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localDescriptionCB = cb
}

// OnLocalCandidate sets the callback for locally gathered candidates.
func (p *PeerConnection) OnLocalCandidate(cb func(cand Candidate)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.localCandidateCB = cb
}

// OnStateChange sets the callback for connection state changes.
func (p *PeerConnection) OnStateChange(cb func(state State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateCB = cb
}

// OnIceStateChange sets the callback for ICE state changes.
func (p *PeerConnection) OnIceStateChange(cb func(state IceState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.iceStateCB = cb
}

// OnGatheringStateChange sets the callback for gathering state
// changes.
func (p *PeerConnection) OnGatheringStateChange(cb func(state GatheringState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gatheringStateCB = cb
}

// OnSignalingStateChange sets the callback for signaling state
// changes.
func (p *PeerConnection) OnSignalingStateChange(cb func(state SignalingState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signalingStateCB = cb
}

// HandleDataChannel implements PeerConnectionSink. The adapter channel
// is wrapped into a DataChannel resource before the callback sees it.
func (p *PeerConnection) HandleDataChannel(adapterID int) {
	p.mu.Lock()
	cb := p.dataChannelCB
	p.mu.Unlock()

	dc, err := NewDataChannel(p.adapter, adapterID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "PeerConnection.HandleDataChannel",
			"adapter_id": adapterID,
			"error":      err.Error(),
		}).Error("failed to wrap incoming data channel")
		return
	}
	if cb != nil {
		cb(dc)
	}
}

// HandleLocalDescription implements PeerConnectionSink.
func (p *PeerConnection) HandleLocalDescription(desc Description) {
	p.mu.Lock()
	cb := p.localDescriptionCB
	p.mu.Unlock()

	if cb != nil {
		cb(desc)
	}
}

// HandleLocalCandidate implements PeerConnectionSink.
func (p *PeerConnection) HandleLocalCandidate(cand Candidate) {
	p.mu.Lock()
	cb := p.localCandidateCB
	p.mu.Unlock()

	if cb != nil {
		cb(cand)
	}
}

// HandleStateChange implements PeerConnectionSink.
func (p *PeerConnection) HandleStateChange(state State) {
	p.mu.Lock()
	p.state = state
	cb := p.stateCB
	p.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

// HandleIceStateChange implements PeerConnectionSink.
func (p *PeerConnection) HandleIceStateChange(state IceState) {
	p.mu.Lock()
	p.iceState = state
	cb := p.iceStateCB
	p.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

// HandleGatheringStateChange implements PeerConnectionSink.
func (p *PeerConnection) HandleGatheringStateChange(state GatheringState) {
	p.mu.Lock()
	p.gatheringState = state
	cb := p.gatheringStateCB
	p.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

// HandleSignalingStateChange implements PeerConnectionSink.
func (p *PeerConnection) HandleSignalingStateChange(state SignalingState) {
	p.mu.Lock()
	p.signalingState = state
	cb := p.signalingStateCB
	p.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}
