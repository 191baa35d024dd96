// Package rtcbridge implements a handle-based bridge between a host
// transport (WebRTC peer connections, data channels and WebSockets) and
// a flat, language-agnostic ABI.
//
// The package exposes three resource kinds tracked by an injectable
// registry: PeerConnection, DataChannel and WebSocket. DataChannel and
// WebSocket share the Channel capability (open/close/send/receive plus
// single-slot event callbacks). All actual networking is delegated to a
// HostAdapter; the transport package provides the production adapter
// over pion/webrtc and gorilla/websocket, while the rtctest package
// provides an in-memory adapter for deterministic tests.
//
// Example:
//
//	adapter := transport.NewAdapter()
//
//	pc, err := rtcbridge.NewPeerConnection(adapter, rtcbridge.NewConfiguration())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dc, err := pc.CreateDataChannel("chat", rtcbridge.NewDataChannelInit())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dc.OnOpen(func() {
//	    dc.Send(rtcbridge.TextMessage("hello"))
//	})
//	dc.OnMessage(func(msg rtcbridge.Message) {
//	    fmt.Printf("received %d bytes\n", len(msg.Data))
//	})
//
// The capi directory builds the flat C ABI on top of this package: every
// resource is addressed by an opaque positive integer handle, every
// fault is reduced to a small status-code vocabulary, and every
// asynchronous event is delivered through a single client-registered
// callback together with a client-owned user pointer.
package rtcbridge
