package rtcbridge_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/rtcbridge"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "new", rtcbridge.StateNew.String())
	assert.Equal(t, "connected", rtcbridge.StateConnected.String())
	assert.Equal(t, "closed", rtcbridge.StateClosed.String())
	assert.Equal(t, "unknown", rtcbridge.State(99).String())
}

func TestReliabilityUnreliable(t *testing.T) {
	var rel rtcbridge.Reliability
	assert.False(t, rel.Unreliable(), "fully reliable by default")

	lifetime := 100 * time.Millisecond
	rel.MaxPacketLifeTime = &lifetime
	assert.True(t, rel.Unreliable())

	retransmits := uint32(1)
	rel = rtcbridge.Reliability{MaxRetransmits: &retransmits}
	assert.True(t, rel.Unreliable())
}

func TestWsConfigurationDefaults(t *testing.T) {
	config := rtcbridge.NewWsConfiguration()
	assert.Equal(t, rtcbridge.DefaultWsConnectTimeout, config.ConnectTimeout)
	assert.Equal(t, rtcbridge.DefaultWsPingInterval, config.PingInterval)
	assert.Equal(t, rtcbridge.DefaultWsMaxMessageSize, config.MaxMessageSize)
}

func TestMessageConstructors(t *testing.T) {
	text := rtcbridge.TextMessage("hi")
	assert.Equal(t, rtcbridge.MessageText, text.Kind)
	assert.Equal(t, "hi", string(text.Data))

	binary := rtcbridge.BinaryMessage([]byte{0x00})
	assert.Equal(t, rtcbridge.MessageBinary, binary.Kind)
	assert.Len(t, binary.Data, 1)
}
