package rtcbridge

import "time"

// State represents the connection state of a PeerConnection.
type State int

const (
	StateNew State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IceState represents the ICE agent state of a PeerConnection.
type IceState int

const (
	IceStateNew IceState = iota
	IceStateChecking
	IceStateConnected
	IceStateCompleted
	IceStateFailed
	IceStateDisconnected
	IceStateClosed
)

// GatheringState represents the ICE candidate gathering state.
type GatheringState int

const (
	GatheringStateNew GatheringState = iota
	GatheringStateInProgress
	GatheringStateComplete
)

// SignalingState represents the SDP signaling state.
type SignalingState int

const (
	SignalingStateStable SignalingState = iota
	SignalingStateHaveLocalOffer
	SignalingStateHaveRemoteOffer
	SignalingStateHaveLocalPranswer
	SignalingStateHaveRemotePranswer
)

// IceServer describes a single STUN or TURN server.
type IceServer struct {
	URL      string
	Username string
	Password string
}

// Configuration contains options for creating a PeerConnection.
type Configuration struct {
	IceServers []IceServer
}

// NewConfiguration returns a Configuration with default values. A
// configuration with zero ICE servers is valid; the connection is then
// limited to host candidates.
func NewConfiguration() Configuration {
	return Configuration{}
}

// Description is a session description exchanged during negotiation.
type Description struct {
	SDP  string
	Type string
}

// Candidate is an ICE candidate together with its media stream
// identification tag.
type Candidate struct {
	Candidate string
	Mid       string
}

// Reliability describes the delivery guarantees of a DataChannel.
// MaxPacketLifeTime and MaxRetransmits are mutually exclusive; setting
// both is rejected at channel creation.
type Reliability struct {
	Unordered         bool
	MaxPacketLifeTime *time.Duration
	MaxRetransmits    *uint32
}

// Unreliable reports whether either partial-reliability limit is set.
func (r Reliability) Unreliable() bool {
	return r.MaxPacketLifeTime != nil || r.MaxRetransmits != nil
}

// DataChannelInit contains options for creating a DataChannel.
type DataChannelInit struct {
	Reliability Reliability
	Protocol    string
	Negotiated  bool
	Stream      *uint16 // numeric ID 0-65534, nil for automatic assignment
}

// NewDataChannelInit returns a DataChannelInit describing an ordered,
// reliable channel with no subprotocol.
func NewDataChannelInit() DataChannelInit {
	return DataChannelInit{}
}

// WsConfiguration contains options for creating a WebSocket.
type WsConfiguration struct {
	Protocols              []string
	ConnectTimeout         time.Duration // 0 means default, < 0 means disabled
	PingInterval           time.Duration // 0 means default, < 0 means disabled
	MaxMessageSize         int           // <= 0 means default
	DisableTLSVerification bool
}

// Default WebSocket tunables, applied by NewWsConfiguration.
const (
	DefaultWsConnectTimeout = 30 * time.Second
	DefaultWsPingInterval   = 10 * time.Second
	DefaultWsMaxMessageSize = 256 * 1024
)

// NewWsConfiguration returns a WsConfiguration with default values.
func NewWsConfiguration() WsConfiguration {
	return WsConfiguration{
		ConnectTimeout: DefaultWsConnectTimeout,
		PingInterval:   DefaultWsPingInterval,
		MaxMessageSize: DefaultWsMaxMessageSize,
	}
}

// MessageKind distinguishes binary payloads from text payloads. The
// kind is a property of the message itself, never inferred from its
// content.
type MessageKind int

const (
	MessageBinary MessageKind = iota
	MessageText
)

// Message is a channel payload tagged with its kind.
type Message struct {
	Kind MessageKind
	Data []byte
}

// BinaryMessage wraps raw bytes as a binary message.
func BinaryMessage(data []byte) Message {
	return Message{Kind: MessageBinary, Data: data}
}

// TextMessage wraps a string as a text message.
func TextMessage(s string) Message {
	return Message{Kind: MessageText, Data: []byte(s)}
}
