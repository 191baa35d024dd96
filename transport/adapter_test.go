package transport

import (
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/rtcbridge"
)

// recordingSink captures peer connection events for inspection.
type recordingSink struct {
	descriptions []rtcbridge.Description
	candidates   []rtcbridge.Candidate
	states       []rtcbridge.State
	channels     []int
}

func (s *recordingSink) HandleDataChannel(adapterID int) { s.channels = append(s.channels, adapterID) }
func (s *recordingSink) HandleLocalDescription(desc rtcbridge.Description) {
	s.descriptions = append(s.descriptions, desc)
}
func (s *recordingSink) HandleLocalCandidate(cand rtcbridge.Candidate) {
	s.candidates = append(s.candidates, cand)
}
func (s *recordingSink) HandleStateChange(state rtcbridge.State) { s.states = append(s.states, state) }
func (s *recordingSink) HandleIceStateChange(rtcbridge.IceState) {}
func (s *recordingSink) HandleGatheringStateChange(rtcbridge.GatheringState) {}
func (s *recordingSink) HandleSignalingStateChange(rtcbridge.SignalingState) {}

func TestConnectionStateMapping(t *testing.T) {
	cases := []struct {
		in   webrtc.PeerConnectionState
		want rtcbridge.State
	}{
		{webrtc.PeerConnectionStateNew, rtcbridge.StateNew},
		{webrtc.PeerConnectionStateConnecting, rtcbridge.StateConnecting},
		{webrtc.PeerConnectionStateConnected, rtcbridge.StateConnected},
		{webrtc.PeerConnectionStateDisconnected, rtcbridge.StateDisconnected},
		{webrtc.PeerConnectionStateFailed, rtcbridge.StateFailed},
		{webrtc.PeerConnectionStateClosed, rtcbridge.StateClosed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapConnectionState(tc.in), tc.in.String())
	}
}

func TestIceStateMapping(t *testing.T) {
	assert.Equal(t, rtcbridge.IceStateChecking, mapIceConnectionState(webrtc.ICEConnectionStateChecking))
	assert.Equal(t, rtcbridge.IceStateConnected, mapIceConnectionState(webrtc.ICEConnectionStateConnected))
	assert.Equal(t, rtcbridge.IceStateClosed, mapIceConnectionState(webrtc.ICEConnectionStateClosed))
	assert.Equal(t, rtcbridge.IceStateNew, mapIceConnectionState(webrtc.ICEConnectionStateNew))
}

func TestGatheringStateMapping(t *testing.T) {
	assert.Equal(t, rtcbridge.GatheringStateNew, mapGatheringState(webrtc.ICEGathererStateNew))
	assert.Equal(t, rtcbridge.GatheringStateInProgress, mapGatheringState(webrtc.ICEGathererStateGathering))
	assert.Equal(t, rtcbridge.GatheringStateComplete, mapGatheringState(webrtc.ICEGathererStateComplete))
	assert.Equal(t, rtcbridge.GatheringStateComplete, mapGatheringState(webrtc.ICEGathererStateClosed))
}

func TestSignalingStateMapping(t *testing.T) {
	assert.Equal(t, rtcbridge.SignalingStateStable, mapSignalingState(webrtc.SignalingStateStable))
	assert.Equal(t, rtcbridge.SignalingStateHaveLocalOffer, mapSignalingState(webrtc.SignalingStateHaveLocalOffer))
	assert.Equal(t, rtcbridge.SignalingStateHaveRemoteOffer, mapSignalingState(webrtc.SignalingStateHaveRemoteOffer))
}

func TestPeerConnectionLifecycle(t *testing.T) {
	a := NewAdapter()

	id, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, id, 1)

	sink := &recordingSink{}
	require.NoError(t, a.BindPeerConnection(id, sink))

	_, ok := a.LocalDescription(id)
	assert.False(t, ok, "no local description before negotiation")

	require.NoError(t, a.SetLocalDescription(id, "offer"))
	require.Len(t, sink.descriptions, 1)
	assert.Equal(t, "offer", sink.descriptions[0].Type)
	assert.NotEmpty(t, sink.descriptions[0].SDP)

	desc, ok := a.LocalDescription(id)
	require.True(t, ok)
	assert.Equal(t, "offer", desc.Type)

	a.DeletePeerConnection(id)
	_, ok = a.LocalDescription(id)
	assert.False(t, ok, "deleted peer connection is gone")
	// Idempotent.
	a.DeletePeerConnection(id)
}

func TestSetLocalDescriptionUnknownType(t *testing.T) {
	a := NewAdapter()
	id, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)

	err = a.SetLocalDescription(id, "pranswer-ish")
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidArgument)
}

func TestAnswerPickedFromSignalingState(t *testing.T) {
	a := NewAdapter()

	offerer, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)
	// The offer must contain something to answer.
	_, err = a.CreateDataChannel(offerer, "seed", rtcbridge.DataChannelInit{})
	require.NoError(t, err)
	require.NoError(t, a.SetLocalDescription(offerer, "offer"))
	offer, ok := a.LocalDescription(offerer)
	require.True(t, ok)

	answerer, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)
	require.NoError(t, a.SetRemoteDescription(answerer, offer))

	// Empty type resolves to answer after a remote offer.
	require.NoError(t, a.SetLocalDescription(answerer, ""))
	desc, ok := a.LocalDescription(answerer)
	require.True(t, ok)
	assert.Equal(t, "answer", desc.Type)

	remote, ok := a.RemoteDescription(answerer)
	require.True(t, ok)
	assert.Equal(t, "offer", remote.Type)
}

func TestCreateDataChannelInfo(t *testing.T) {
	a := NewAdapter()
	pcID, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)

	retransmits := uint32(3)
	init := rtcbridge.DataChannelInit{Protocol: "chat-v1"}
	init.Reliability.Unordered = true
	init.Reliability.MaxRetransmits = &retransmits

	chID, err := a.CreateDataChannel(pcID, "chat", init)
	require.NoError(t, err)

	label, protocol, rel, err := a.DataChannelInfo(chID)
	require.NoError(t, err)
	assert.Equal(t, "chat", label)
	assert.Equal(t, "chat-v1", protocol)
	assert.True(t, rel.Unordered)
	require.NotNil(t, rel.MaxRetransmits)
	assert.Equal(t, uint32(3), *rel.MaxRetransmits)
	assert.Nil(t, rel.MaxPacketLifeTime)
}

func TestUnknownIDs(t *testing.T) {
	a := NewAdapter()

	err := a.Send(99, rtcbridge.TextMessage("nowhere"))
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidHandle)
	_, err = a.BufferedAmount(99)
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidHandle)
	_, _, _, err = a.DataChannelInfo(99)
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidHandle)
	err = a.BindPeerConnection(99, &recordingSink{})
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidHandle)
	_, err = a.CreateDataChannel(99, "chat", rtcbridge.DataChannelInit{})
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidHandle)

	// Deleting unknown IDs is a no-op, not a fault.
	a.DeleteChannel(99)
	a.DeletePeerConnection(99)
}

func TestPreload(t *testing.T) {
	a := NewAdapter()
	require.NoError(t, a.Preload())
	require.NoError(t, a.Preload(), "idempotent")

	// Connections created afterwards reuse the shared certificate.
	id, err := a.CreatePeerConnection(rtcbridge.Configuration{})
	require.NoError(t, err)
	require.NoError(t, a.SetLocalDescription(id, "offer"))
}
