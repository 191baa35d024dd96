// Package rtctest provides an in-memory HostAdapter for deterministic
// testing.
//
// The adapter mirrors the production transport but performs no network
// operations: peer connections and channels are plain records, and
// tests drive host-originated events explicitly through the Deliver*
// and Open/Accept helpers. Events run synchronously on the caller's
// goroutine, matching the single cooperative event loop the production
// host provides, so tests observe callback effects immediately.
package rtctest

import (
	"fmt"
	"sync"

	"github.com/opd-ai/rtcbridge"
)

// Adapter is an in-memory rtcbridge.HostAdapter. Create one with
// NewAdapter. The Fail* fields, when non-nil, make the corresponding
// creation or query fail with that error.
type Adapter struct {
	FailPeerConnection error
	FailDataChannel    error
	FailWebSocket      error
	FailBufferedAmount error

	mu        sync.Mutex
	lastID    int
	preloaded bool
	peers     map[int]*peerRecord
	channels  map[int]*channelRecord
}

type peerRecord struct {
	sink       rtcbridge.PeerConnectionSink
	localDesc  *rtcbridge.Description
	remoteDesc *rtcbridge.Description
	candidates []rtcbridge.Candidate
}

type channelRecord struct {
	label     string
	protocol  string
	rel       rtcbridge.Reliability
	url       string
	sink      rtcbridge.ChannelSink
	sent      []rtcbridge.Message
	outBytes  int
	threshold int
	wasAbove  bool
}

// NewAdapter creates an empty in-memory adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		peers:    make(map[int]*peerRecord),
		channels: make(map[int]*channelRecord),
	}
}

// Preload implements rtcbridge.HostAdapter.
func (a *Adapter) Preload() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preloaded = true
	return nil
}

// Preloaded reports whether Preload was called.
func (a *Adapter) Preloaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.preloaded
}

// CreatePeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) CreatePeerConnection(config rtcbridge.Configuration) (int, error) {
	if a.FailPeerConnection != nil {
		return 0, a.FailPeerConnection
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastID++
	a.peers[a.lastID] = &peerRecord{}
	return a.lastID, nil
}

// BindPeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) BindPeerConnection(id int, sink rtcbridge.PeerConnectionSink) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.peers[id]
	if !ok {
		return fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, id)
	}
	p.sink = sink
	return nil
}

// DeletePeerConnection implements rtcbridge.HostAdapter.
func (a *Adapter) DeletePeerConnection(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.peers, id)
}

// SetLocalDescription implements rtcbridge.HostAdapter. It fabricates
// a description of the requested type and reports it through the sink,
// the way the production adapter reports the one pion produced.
func (a *Adapter) SetLocalDescription(id int, descType string) error {
	a.mu.Lock()
	p, ok := a.peers[id]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, id)
	}
	if descType == "" {
		descType = "offer"
	}
	desc := rtcbridge.Description{SDP: fmt.Sprintf("v=0 (%s for %d)", descType, id), Type: descType}
	p.localDesc = &desc
	sink := p.sink
	a.mu.Unlock()

	if sink != nil {
		sink.HandleLocalDescription(desc)
	}
	return nil
}

// SetRemoteDescription implements rtcbridge.HostAdapter.
func (a *Adapter) SetRemoteDescription(id int, desc rtcbridge.Description) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.peers[id]
	if !ok {
		return fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, id)
	}
	p.remoteDesc = &desc
	return nil
}

// AddRemoteCandidate implements rtcbridge.HostAdapter.
func (a *Adapter) AddRemoteCandidate(id int, cand rtcbridge.Candidate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.peers[id]
	if !ok {
		return fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, id)
	}
	p.candidates = append(p.candidates, cand)
	return nil
}

// LocalDescription implements rtcbridge.HostAdapter.
func (a *Adapter) LocalDescription(id int) (rtcbridge.Description, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.peers[id]; ok && p.localDesc != nil {
		return *p.localDesc, true
	}
	return rtcbridge.Description{}, false
}

// RemoteDescription implements rtcbridge.HostAdapter.
func (a *Adapter) RemoteDescription(id int) (rtcbridge.Description, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.peers[id]; ok && p.remoteDesc != nil {
		return *p.remoteDesc, true
	}
	return rtcbridge.Description{}, false
}

// CreateDataChannel implements rtcbridge.HostAdapter.
func (a *Adapter) CreateDataChannel(pc int, label string, init rtcbridge.DataChannelInit) (int, error) {
	if a.FailDataChannel != nil {
		return 0, a.FailDataChannel
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.peers[pc]; !ok {
		return 0, fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, pc)
	}
	a.lastID++
	a.channels[a.lastID] = &channelRecord{
		label:    label,
		protocol: init.Protocol,
		rel:      init.Reliability,
	}
	return a.lastID, nil
}

// DataChannelInfo implements rtcbridge.HostAdapter.
func (a *Adapter) DataChannelInfo(id int) (string, string, rtcbridge.Reliability, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return "", "", rtcbridge.Reliability{}, fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
	}
	return ch.label, ch.protocol, ch.rel, nil
}

// CreateWebSocket implements rtcbridge.HostAdapter.
func (a *Adapter) CreateWebSocket(url string, config rtcbridge.WsConfiguration) (int, error) {
	if a.FailWebSocket != nil {
		return 0, a.FailWebSocket
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastID++
	a.channels[a.lastID] = &channelRecord{url: url}
	return a.lastID, nil
}

// BindChannel implements rtcbridge.HostAdapter.
func (a *Adapter) BindChannel(id int, sink rtcbridge.ChannelSink) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
	}
	ch.sink = sink
	return nil
}

// DeleteChannel implements rtcbridge.HostAdapter.
func (a *Adapter) DeleteChannel(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.channels, id)
}

// Send implements rtcbridge.HostAdapter.
func (a *Adapter) Send(id int, msg rtcbridge.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
	}
	ch.sent = append(ch.sent, msg)
	ch.outBytes += len(msg.Data)
	if ch.outBytes > ch.threshold {
		ch.wasAbove = true
	}
	return nil
}

// BufferedAmount implements rtcbridge.HostAdapter.
func (a *Adapter) BufferedAmount(id int) (int, error) {
	if a.FailBufferedAmount != nil {
		return 0, a.FailBufferedAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return 0, fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
	}
	return ch.outBytes, nil
}

// SetBufferedAmountLowThreshold implements rtcbridge.HostAdapter.
func (a *Adapter) SetBufferedAmountLowThreshold(id int, amount int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
	}
	ch.threshold = amount
	ch.wasAbove = ch.outBytes > amount
	return nil
}

// channelSink fetches the sink for a live channel.
func (a *Adapter) channelSink(id int) rtcbridge.ChannelSink {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ch, ok := a.channels[id]; ok {
		return ch.sink
	}
	return nil
}

func (a *Adapter) peerSink(id int) rtcbridge.PeerConnectionSink {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.peers[id]; ok {
		return p.sink
	}
	return nil
}

// OpenChannel delivers the host open confirmation for a channel.
func (a *Adapter) OpenChannel(id int) bool {
	sink := a.channelSink(id)
	if sink == nil {
		return false
	}
	sink.HandleOpen()
	return true
}

// DeliverMessage delivers an inbound payload to a channel.
func (a *Adapter) DeliverMessage(id int, msg rtcbridge.Message) bool {
	sink := a.channelSink(id)
	if sink == nil {
		return false
	}
	sink.HandleMessage(&msg)
	return true
}

// DeliverClosure delivers the host closure signal (the null-payload
// event) to a channel.
func (a *Adapter) DeliverClosure(id int) bool {
	sink := a.channelSink(id)
	if sink == nil {
		return false
	}
	sink.HandleMessage(nil)
	return true
}

// DeliverError delivers an error event to a channel.
func (a *Adapter) DeliverError(id int, errMsg string) bool {
	sink := a.channelSink(id)
	if sink == nil {
		return false
	}
	sink.HandleError(errMsg)
	return true
}

// Drain simulates transmission of everything queued on a channel. If
// the byte total crosses down to the armed threshold the
// BufferedAmountLow event fires exactly once, regardless of how many
// messages drained.
func (a *Adapter) Drain(id int) {
	a.mu.Lock()
	ch, ok := a.channels[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	ch.outBytes = 0
	fireLow := ch.wasAbove
	ch.wasAbove = false
	sink := ch.sink
	a.mu.Unlock()

	if fireLow && sink != nil {
		sink.HandleBufferedAmountLow()
	}
}

// AcceptDataChannel simulates the remote side opening a data channel
// on a peer connection. It registers the channel and announces it
// through the peer connection sink, returning the new adapter ID.
func (a *Adapter) AcceptDataChannel(pc int, label string) int {
	a.mu.Lock()
	p, ok := a.peers[pc]
	if !ok {
		a.mu.Unlock()
		return 0
	}
	a.lastID++
	id := a.lastID
	a.channels[id] = &channelRecord{label: label}
	sink := p.sink
	a.mu.Unlock()

	if sink != nil {
		sink.HandleDataChannel(id)
	}
	return id
}

// DeliverStateChange delivers a connection state change event.
func (a *Adapter) DeliverStateChange(id int, state rtcbridge.State) bool {
	sink := a.peerSink(id)
	if sink == nil {
		return false
	}
	sink.HandleStateChange(state)
	return true
}

// DeliverCandidate delivers a locally gathered candidate event.
func (a *Adapter) DeliverCandidate(id int, cand rtcbridge.Candidate) bool {
	sink := a.peerSink(id)
	if sink == nil {
		return false
	}
	sink.HandleLocalCandidate(cand)
	return true
}

// Sent returns a copy of the messages sent through a channel.
func (a *Adapter) Sent(id int) []rtcbridge.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[id]
	if !ok {
		return nil
	}
	out := make([]rtcbridge.Message, len(ch.sent))
	copy(out, ch.sent)
	return out
}

// ChannelLive reports whether the adapter still holds a channel.
func (a *Adapter) ChannelLive(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.channels[id]
	return ok
}

// PeerLive reports whether the adapter still holds a peer connection.
func (a *Adapter) PeerLive(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.peers[id]
	return ok
}
