package rtcbridge_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/rtcbridge"
	"github.com/opd-ai/rtcbridge/rtctest"
)

func newPeerConnection(t *testing.T) (*rtctest.Adapter, *rtcbridge.PeerConnection) {
	t.Helper()
	fake := rtctest.NewAdapter()
	pc, err := rtcbridge.NewPeerConnection(fake, rtcbridge.NewConfiguration())
	require.NoError(t, err)
	return fake, pc
}

func TestNewPeerConnectionFailure(t *testing.T) {
	fake := rtctest.NewAdapter()
	fake.FailPeerConnection = errors.New("no media engine")
	_, err := rtcbridge.NewPeerConnection(fake, rtcbridge.NewConfiguration())
	assert.Error(t, err)
	assert.False(t, fake.PeerLive(1))
}

func TestPeerConnectionCloseIdempotent(t *testing.T) {
	fake, pc := newPeerConnection(t)

	assert.False(t, pc.IsClosed())
	pc.Close()
	assert.True(t, pc.IsClosed())
	assert.False(t, fake.PeerLive(1))
	pc.Close()
	assert.True(t, pc.IsClosed())
}

func TestCreateDataChannel(t *testing.T) {
	fake, pc := newPeerConnection(t)

	retransmits := uint32(2)
	init := rtcbridge.NewDataChannelInit()
	init.Protocol = "chat-v1"
	init.Reliability.MaxRetransmits = &retransmits

	dc, err := pc.CreateDataChannel("chat", init)
	require.NoError(t, err)
	assert.Equal(t, "chat", dc.Label())
	assert.Equal(t, "chat-v1", dc.Protocol())
	rel := dc.Reliability()
	require.NotNil(t, rel.MaxRetransmits)
	assert.Equal(t, uint32(2), *rel.MaxRetransmits)
	assert.True(t, fake.ChannelLive(2))
}

func TestCreateDataChannelValidation(t *testing.T) {
	_, pc := newPeerConnection(t)

	lifetime := 200 * time.Millisecond
	retransmits := uint32(2)
	init := rtcbridge.NewDataChannelInit()
	init.Reliability.MaxPacketLifeTime = &lifetime
	init.Reliability.MaxRetransmits = &retransmits

	_, err := pc.CreateDataChannel("bad", init)
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidArgument)

	pc.Close()
	_, err = pc.CreateDataChannel("late", rtcbridge.NewDataChannelInit())
	assert.ErrorIs(t, err, rtcbridge.ErrClosed)
}

func TestLocalDescriptionFlow(t *testing.T) {
	_, pc := newPeerConnection(t)

	_, err := pc.LocalDescription()
	assert.ErrorIs(t, err, rtcbridge.ErrNotAvailable)

	var produced rtcbridge.Description
	pc.OnLocalDescription(func(desc rtcbridge.Description) { produced = desc })

	require.NoError(t, pc.SetLocalDescription("answer"))
	assert.Equal(t, "answer", produced.Type)
	assert.NotEmpty(t, produced.SDP)

	desc, err := pc.LocalDescription()
	require.NoError(t, err)
	assert.Equal(t, produced, desc)
}

func TestRemoteDescriptionFlow(t *testing.T) {
	_, pc := newPeerConnection(t)

	_, err := pc.RemoteDescription()
	assert.ErrorIs(t, err, rtcbridge.ErrNotAvailable)

	err = pc.SetRemoteDescription(rtcbridge.Description{SDP: "", Type: "offer"})
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidArgument)

	remote := rtcbridge.Description{SDP: "v=0 remote", Type: "offer"}
	require.NoError(t, pc.SetRemoteDescription(remote))

	desc, err := pc.RemoteDescription()
	require.NoError(t, err)
	assert.Equal(t, remote, desc)
}

func TestAddRemoteCandidateValidation(t *testing.T) {
	_, pc := newPeerConnection(t)

	err := pc.AddRemoteCandidate(rtcbridge.Candidate{Candidate: "", Mid: "0"})
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidArgument)

	err = pc.AddRemoteCandidate(rtcbridge.Candidate{Candidate: "candidate:1 1 UDP 1 192.0.2.1 5000 typ host", Mid: "0"})
	assert.NoError(t, err)
}

func TestStateChangeHandlers(t *testing.T) {
	fake, pc := newPeerConnection(t)

	var observed []rtcbridge.State
	pc.OnStateChange(func(state rtcbridge.State) { observed = append(observed, state) })

	require.True(t, fake.DeliverStateChange(1, rtcbridge.StateConnecting))
	require.True(t, fake.DeliverStateChange(1, rtcbridge.StateConnected))

	assert.Equal(t, []rtcbridge.State{rtcbridge.StateConnecting, rtcbridge.StateConnected}, observed)
	assert.Equal(t, rtcbridge.StateConnected, pc.State())
}

func TestLocalCandidateHandler(t *testing.T) {
	fake, pc := newPeerConnection(t)

	var got rtcbridge.Candidate
	pc.OnLocalCandidate(func(cand rtcbridge.Candidate) { got = cand })

	cand := rtcbridge.Candidate{Candidate: "candidate:2 1 UDP 2 198.51.100.7 443 typ relay", Mid: "0"}
	require.True(t, fake.DeliverCandidate(1, cand))
	assert.Equal(t, cand, got)
}

func TestIncomingDataChannelWrapped(t *testing.T) {
	fake, pc := newPeerConnection(t)

	var got *rtcbridge.DataChannel
	pc.OnDataChannel(func(dc *rtcbridge.DataChannel) { got = dc })

	id := fake.AcceptDataChannel(1, "remote-feed")
	require.NotZero(t, id)
	require.NotNil(t, got)
	assert.Equal(t, "remote-feed", got.Label())
	assert.False(t, got.IsClosed())
}

func TestIncomingDataChannelWithoutCallbackDropped(t *testing.T) {
	fake, _ := newPeerConnection(t)

	// Nothing to observe; this must simply not panic.
	id := fake.AcceptDataChannel(1, "unwatched")
	assert.NotZero(t, id)
}
