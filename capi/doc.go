// Package main provides the flat C ABI for rtcbridge, exposing peer
// connections, data channels and WebSockets through opaque integer
// handles so that hosts with no knowledge of the Go type hierarchy can
// create, query and tear down resources and receive asynchronous
// events for them.
//
// # Overview
//
// Every resource is addressed by a positive integer handle assigned by
// the registry; no Go reference ever crosses the boundary. Every call
// returns a status code from a small stable vocabulary:
//
//	 0  success
//	-1  invalid argument or unknown handle
//	-2  runtime failure
//	-3  queried value not available
//	-4  buffer too small
//
// Variable-length outputs follow a two-phase ask/fetch protocol: call
// with a nil buffer to learn the exact capacity required (string
// length + 1 for the terminator, raw length for binary), then call
// again with a buffer of at least that size. An undersized buffer
// fails with -4 and writes nothing.
//
// Asynchronous events are delivered through client-registered
// callbacks, at most one per event kind per resource, each invoked
// with the resource handle and the client-owned user pointer. Message
// payloads keep the wire sign convention at this boundary: a
// non-negative size is a binary payload, a negative size is a
// NUL-terminated text payload of length -size - 1.
//
// # Build Instructions
//
// To build as a C shared library:
//
//	go build -buildmode=c-shared -o librtcbridge.so ./capi/
//
// # Usage
//
//	int pc = rtcCreatePeerConnection(&config);
//	rtcSetUserPointer(pc, user);
//	rtcSetLocalDescriptionCallback(pc, onDescription);
//
//	int dc = rtcCreateDataChannel(pc, "chat");
//	rtcSetMessageCallback(dc, onMessage);
//	rtcSendMessage(dc, data, size);
//
//	rtcDeleteDataChannel(dc);
//	rtcDeletePeerConnection(pc);
//	rtcCleanup();
package main
