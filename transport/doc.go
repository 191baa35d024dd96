// Package transport implements the production HostAdapter.
//
// Peer connections and data channels run over pion/webrtc; WebSockets
// run over gorilla/websocket. The adapter keeps its own integer ID
// space, independent of the public handles assigned by the registry:
// the core threads handles through its own callback closures, so no
// raw object identity ever crosses the adapter boundary.
//
// All timeout and retry behavior lives here (gorilla handshake
// timeout, pion ICE timers); the core defines none of its own. pion's
// internal logging is routed into logrus through a LoggerFactory
// bridge, so the whole module logs through one sink.
package transport
