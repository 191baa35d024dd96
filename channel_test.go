package rtcbridge_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/rtcbridge"
	"github.com/opd-ai/rtcbridge/rtctest"
)

func newWebSocket(t *testing.T) (*rtctest.Adapter, *rtcbridge.WebSocket) {
	t.Helper()
	fake := rtctest.NewAdapter()
	ws, err := rtcbridge.NewWebSocket(fake, "wss://example.com/feed", rtcbridge.NewWsConfiguration())
	require.NoError(t, err)
	return fake, ws
}

func TestWebSocketLifecycle(t *testing.T) {
	fake, ws := newWebSocket(t)

	assert.False(t, ws.IsOpen(), "not open before host confirmation")
	assert.False(t, ws.IsClosed(), "not closed right after creation")
	assert.Equal(t, "wss://example.com/feed", ws.URL())

	require.True(t, fake.OpenChannel(1))
	assert.True(t, ws.IsOpen())

	closedEvents := 0
	ws.OnClosed(func() { closedEvents++ })

	ws.Close()
	assert.True(t, ws.IsClosed())
	assert.False(t, ws.IsOpen())
	assert.False(t, fake.ChannelLive(1), "adapter resource released")
	assert.Zero(t, closedEvents, "explicit close fires no Closed event")

	// Idempotent.
	ws.Close()
	assert.True(t, ws.IsClosed())
}

func TestWebSocketEmptyURL(t *testing.T) {
	fake := rtctest.NewAdapter()
	_, err := rtcbridge.NewWebSocket(fake, "", rtcbridge.NewWsConfiguration())
	assert.ErrorIs(t, err, rtcbridge.ErrInvalidArgument)
	assert.False(t, fake.ChannelLive(1), "no adapter resource for a rejected URL")
}

func TestWebSocketCreateFailure(t *testing.T) {
	fake := rtctest.NewAdapter()
	fake.FailWebSocket = errors.New("connection refused")
	_, err := rtcbridge.NewWebSocket(fake, "wss://example.com/feed", rtcbridge.NewWsConfiguration())
	assert.Error(t, err)
}

func TestSendLifecycleStates(t *testing.T) {
	fake, ws := newWebSocket(t)

	err := ws.Send(rtcbridge.TextMessage("early"))
	assert.ErrorIs(t, err, rtcbridge.ErrNotOpen, "send before open confirmation")

	fake.OpenChannel(1)
	require.NoError(t, ws.Send(rtcbridge.TextMessage("hello")))
	sent := fake.Sent(1)
	require.Len(t, sent, 1)
	assert.Equal(t, rtcbridge.MessageText, sent[0].Kind)
	assert.Equal(t, "hello", string(sent[0].Data))

	ws.Close()
	err = ws.Send(rtcbridge.TextMessage("late"))
	assert.ErrorIs(t, err, rtcbridge.ErrClosed, "send after close")
}

func TestClosureSignalFiresClosedOnce(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)

	closedEvents := 0
	ws.OnClosed(func() { closedEvents++ })
	messages := 0
	ws.OnMessage(func(msg rtcbridge.Message) { messages++ })

	require.True(t, fake.DeliverClosure(1))

	assert.Equal(t, 1, closedEvents)
	assert.Zero(t, messages, "closure signal is not a message")
	assert.True(t, ws.IsClosed())
	assert.False(t, fake.ChannelLive(1))
}

func TestLateOpenAfterCloseIgnored(t *testing.T) {
	_, ws := newWebSocket(t)

	opened := 0
	ws.OnOpen(func() { opened++ })
	ws.Close()

	// A confirmation still in flight when the channel closed.
	ws.HandleOpen()

	assert.Zero(t, opened)
	assert.False(t, ws.IsOpen(), "closed is absorbing")
}

func TestBufferedAmountDegradesToZero(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)
	require.NoError(t, ws.Send(rtcbridge.BinaryMessage([]byte{1, 2, 3})))
	assert.Equal(t, 3, ws.BufferedAmount())

	fake.FailBufferedAmount = errors.New("transport gone")
	assert.Zero(t, ws.BufferedAmount(), "query failure reads as empty")
}

func TestBufferedAmountLowThreshold(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)

	lowEvents := 0
	ws.OnBufferedAmountLow(func() { lowEvents++ })
	ws.SetBufferedAmountLowThreshold(2)

	require.NoError(t, ws.Send(rtcbridge.BinaryMessage([]byte{1, 2, 3})))
	fake.Drain(1)
	assert.Equal(t, 1, lowEvents, "one event per crossing")

	fake.Drain(1)
	assert.Equal(t, 1, lowEvents, "no event without a new crossing")
}

func TestErrorEventDefaultsToUnknown(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)

	var got []string
	ws.OnError(func(errMsg string) { got = append(got, errMsg) })

	fake.DeliverError(1, "handshake failed")
	fake.DeliverError(1, "")

	assert.Equal(t, []string{"handshake failed", "unknown"}, got)
}

func TestReceiveQueue(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)

	availableEvents := 0
	ws.OnAvailable(func() { availableEvents++ })

	fake.DeliverMessage(1, rtcbridge.TextMessage("first"))
	fake.DeliverMessage(1, rtcbridge.BinaryMessage([]byte{9, 9}))

	assert.Equal(t, 2, availableEvents)
	assert.Equal(t, 7, ws.AvailableAmount())

	peeked, ok := ws.Peek()
	require.True(t, ok)
	assert.Equal(t, "first", string(peeked.Data))
	assert.Equal(t, 7, ws.AvailableAmount(), "peek does not consume")

	msg, ok := ws.Receive()
	require.True(t, ok)
	assert.Equal(t, rtcbridge.MessageText, msg.Kind)
	assert.Equal(t, "first", string(msg.Data))

	msg, ok = ws.Receive()
	require.True(t, ok)
	assert.Equal(t, rtcbridge.MessageBinary, msg.Kind)
	assert.Zero(t, ws.AvailableAmount())

	_, ok = ws.Receive()
	assert.False(t, ok, "queue drained")
}

func TestMessageCallbackBypassesQueue(t *testing.T) {
	fake, ws := newWebSocket(t)
	fake.OpenChannel(1)

	var got []rtcbridge.Message
	ws.OnMessage(func(msg rtcbridge.Message) { got = append(got, msg) })

	fake.DeliverMessage(1, rtcbridge.BinaryMessage([]byte{0x01, 0x02}))

	require.Len(t, got, 1)
	assert.Equal(t, []byte{0x01, 0x02}, got[0].Data)
	assert.Zero(t, ws.AvailableAmount(), "delivered messages are not queued")
}
