package rtcbridge

// HostAdapter is the narrow contract the core requires from the native
// transport. The adapter owns its own identity space: every primitive
// takes the adapter-assigned ID returned at creation, never a public
// handle. Events flow back through the sinks bound after creation.
//
// The transport package provides the production implementation over
// pion/webrtc and gorilla/websocket; rtctest provides an in-memory one.
// Timeout and retry behavior belongs entirely to the adapter; the core
// defines none of its own.
type HostAdapter interface {
	// Preload warms adapter resources ahead of the first creation.
	// Best effort; a failure leaves the adapter usable.
	Preload() error

	// CreatePeerConnection allocates a native peer connection and
	// returns its adapter ID.
	CreatePeerConnection(config Configuration) (int, error)

	// BindPeerConnection attaches the event sink for a peer
	// connection. Events observed before binding are not replayed.
	BindPeerConnection(id int, sink PeerConnectionSink) error

	// DeletePeerConnection releases the native peer connection.
	// Unknown IDs are ignored.
	DeletePeerConnection(id int)

	SetLocalDescription(id int, descType string) error
	SetRemoteDescription(id int, desc Description) error
	AddRemoteCandidate(id int, cand Candidate) error

	// LocalDescription reports the current local description, if one
	// has been produced.
	LocalDescription(id int) (Description, bool)

	// RemoteDescription reports the current remote description, if
	// one has been applied.
	RemoteDescription(id int) (Description, bool)

	// CreateDataChannel allocates a native data channel on the given
	// peer connection and returns its adapter ID.
	CreateDataChannel(pc int, label string, init DataChannelInit) (int, error)

	// DataChannelInfo reports the label, subprotocol and reliability
	// of a data channel.
	DataChannelInfo(id int) (label, protocol string, rel Reliability, err error)

	// CreateWebSocket opens a native WebSocket client connection and
	// returns its adapter ID.
	CreateWebSocket(url string, config WsConfiguration) (int, error)

	// BindChannel attaches the event sink for a data channel or
	// WebSocket.
	BindChannel(id int, sink ChannelSink) error

	// DeleteChannel releases the native channel. Unknown IDs are
	// ignored.
	DeleteChannel(id int)

	Send(id int, msg Message) error
	BufferedAmount(id int) (int, error)
	SetBufferedAmountLowThreshold(id int, amount int) error
}

// PeerConnectionSink receives host-originated peer connection events.
// Implementations must tolerate events arriving after the resource has
// been closed.
type PeerConnectionSink interface {
	// HandleDataChannel announces an incoming data channel by its
	// adapter ID. The channel is not yet wrapped in a resource.
	HandleDataChannel(adapterID int)

	HandleLocalDescription(desc Description)
	HandleLocalCandidate(cand Candidate)
	HandleStateChange(state State)
	HandleIceStateChange(state IceState)
	HandleGatheringStateChange(state GatheringState)
	HandleSignalingStateChange(state SignalingState)
}

// ChannelSink receives host-originated channel events.
//
// A nil message passed to HandleMessage is the adapter's closure
// signal, not a payload: it closes the channel and fires the Closed
// event exactly once. Delivering an empty payload uses a non-nil
// Message with empty Data.
type ChannelSink interface {
	HandleOpen()
	HandleError(errMsg string)
	HandleMessage(msg *Message)
	HandleBufferedAmountLow()
}
