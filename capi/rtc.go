package main

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
	"github.com/opd-ai/rtcbridge/registry"
	"github.com/opd-ai/rtcbridge/transport"
)

// This is the main package required for building as c-shared.
// It provides C-compatible wrappers for the rtcbridge implementation.

func main() {} // Required for c-shared build mode

// Global registry and host adapter shared by all exported functions.
// The adapter is created lazily so rtcPreload stays optional.
var (
	reg = registry.New()

	adapterMu sync.Mutex
	adapter   rtcbridge.HostAdapter
)

func hostAdapter() rtcbridge.HostAdapter {
	adapterMu.Lock()
	defer adapterMu.Unlock()
	if adapter == nil {
		adapter = transport.NewAdapter()
	}
	return adapter
}

// Callback function types of the flat ABI. Each receives the resource
// handle and the client-owned user pointer registered for it.
type (
	rtcDescriptionCallbackFunc       func(pc int, sdp string, descType string, ptr unsafe.Pointer)
	rtcCandidateCallbackFunc         func(pc int, cand string, mid string, ptr unsafe.Pointer)
	rtcStateChangeCallbackFunc       func(pc int, state rtcbridge.State, ptr unsafe.Pointer)
	rtcIceStateChangeCallbackFunc    func(pc int, state rtcbridge.IceState, ptr unsafe.Pointer)
	rtcGatheringStateCallbackFunc    func(pc int, state rtcbridge.GatheringState, ptr unsafe.Pointer)
	rtcSignalingStateCallbackFunc    func(pc int, state rtcbridge.SignalingState, ptr unsafe.Pointer)
	rtcDataChannelCallbackFunc       func(pc int, dc int, ptr unsafe.Pointer)
	rtcOpenCallbackFunc              func(id int, ptr unsafe.Pointer)
	rtcClosedCallbackFunc            func(id int, ptr unsafe.Pointer)
	rtcErrorCallbackFunc             func(id int, errMsg string, ptr unsafe.Pointer)
	rtcMessageCallbackFunc           func(id int, message *byte, size int, ptr unsafe.Pointer)
	rtcBufferedAmountLowCallbackFunc func(id int, ptr unsafe.Pointer)
	rtcAvailableCallbackFunc         func(id int, ptr unsafe.Pointer)
)

// User pointer

//export rtcSetUserPointer
func rtcSetUserPointer(id int, ptr unsafe.Pointer) {
	reg.SetUserPointer(id, ptr)
}

//export rtcGetUserPointer
func rtcGetUserPointer(id int) unsafe.Pointer {
	ptr, _ := reg.UserPointer(id)
	return ptr
}

// PeerConnection

//export rtcCreatePeerConnection
func rtcCreatePeerConnection(config *rtcbridge.Configuration) int {
	return wrap(func() (int, error) {
		if config == nil {
			return 0, rtcbridge.ErrInvalidArgument
		}
		pc, err := rtcbridge.NewPeerConnection(hostAdapter(), *config)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "rtcCreatePeerConnection",
				"error":    err.Error(),
			}).Error("failed to create peer connection")
			return 0, err
		}
		return reg.AddPeerConnection(pc), nil
	})
}

//export rtcClosePeerConnection
func rtcClosePeerConnection(pc int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		p.Close()
		return errSuccess, nil
	})
}

//export rtcDeletePeerConnection
func rtcDeletePeerConnection(pc int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		p.Close()
		if err := reg.ErasePeerConnection(pc); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcSetLocalDescriptionCallback
func rtcSetLocalDescriptionCallback(pc int, cb rtcDescriptionCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnLocalDescription(nil)
			return errSuccess, nil
		}
		p.OnLocalDescription(func(desc rtcbridge.Description) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, desc.SDP, desc.Type, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetLocalCandidateCallback
func rtcSetLocalCandidateCallback(pc int, cb rtcCandidateCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnLocalCandidate(nil)
			return errSuccess, nil
		}
		p.OnLocalCandidate(func(cand rtcbridge.Candidate) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, cand.Candidate, cand.Mid, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetStateChangeCallback
func rtcSetStateChangeCallback(pc int, cb rtcStateChangeCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnStateChange(nil)
			return errSuccess, nil
		}
		p.OnStateChange(func(state rtcbridge.State) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, state, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetIceStateChangeCallback
func rtcSetIceStateChangeCallback(pc int, cb rtcIceStateChangeCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnIceStateChange(nil)
			return errSuccess, nil
		}
		p.OnIceStateChange(func(state rtcbridge.IceState) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, state, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetGatheringStateChangeCallback
func rtcSetGatheringStateChangeCallback(pc int, cb rtcGatheringStateCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnGatheringStateChange(nil)
			return errSuccess, nil
		}
		p.OnGatheringStateChange(func(state rtcbridge.GatheringState) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, state, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetSignalingStateChangeCallback
func rtcSetSignalingStateChangeCallback(pc int, cb rtcSignalingStateCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnSignalingStateChange(nil)
			return errSuccess, nil
		}
		p.OnSignalingStateChange(func(state rtcbridge.SignalingState) {
			if ptr, ok := reg.ContextFor(pc); ok {
				cb(pc, state, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetDataChannelCallback
func rtcSetDataChannelCallback(pc int, cb rtcDataChannelCallbackFunc) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			p.OnDataChannel(nil)
			return errSuccess, nil
		}
		p.OnDataChannel(func(channel *rtcbridge.DataChannel) {
			// Register the incoming channel before the client sees
			// it, so the handle resolves inside the callback. It
			// inherits the parent's user pointer.
			dc := reg.AddDataChannel(channel)
			if ptr, ok := reg.ContextFor(pc); ok {
				rtcSetUserPointer(dc, ptr)
				cb(pc, dc, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetLocalDescription
func rtcSetLocalDescription(pc int, descType string) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if err := p.SetLocalDescription(descType); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcSetRemoteDescription
func rtcSetRemoteDescription(pc int, sdp string, descType string) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if err := p.SetRemoteDescription(rtcbridge.Description{SDP: sdp, Type: descType}); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcAddRemoteCandidate
func rtcAddRemoteCandidate(pc int, cand string, mid string) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		if err := p.AddRemoteCandidate(rtcbridge.Candidate{Candidate: cand, Mid: mid}); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcGetLocalDescription
func rtcGetLocalDescription(pc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		desc, err := p.LocalDescription()
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(desc.SDP, buffer, size), nil
	})
}

//export rtcGetLocalDescriptionType
func rtcGetLocalDescriptionType(pc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		desc, err := p.LocalDescription()
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(desc.Type, buffer, size), nil
	})
}

//export rtcGetRemoteDescription
func rtcGetRemoteDescription(pc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		desc, err := p.RemoteDescription()
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(desc.SDP, buffer, size), nil
	})
}

//export rtcGetRemoteDescriptionType
func rtcGetRemoteDescriptionType(pc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		desc, err := p.RemoteDescription()
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(desc.Type, buffer, size), nil
	})
}

// DataChannel and WebSocket common API

//export rtcSetOpenCallback
func rtcSetOpenCallback(id int, cb rtcOpenCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnOpen(nil)
			return errSuccess, nil
		}
		ch.OnOpen(func() {
			if ptr, ok := reg.ContextFor(id); ok {
				cb(id, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetClosedCallback
func rtcSetClosedCallback(id int, cb rtcClosedCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnClosed(nil)
			return errSuccess, nil
		}
		ch.OnClosed(func() {
			if ptr, ok := reg.ContextFor(id); ok {
				cb(id, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetErrorCallback
func rtcSetErrorCallback(id int, cb rtcErrorCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnError(nil)
			return errSuccess, nil
		}
		ch.OnError(func(errMsg string) {
			if ptr, ok := reg.ContextFor(id); ok {
				cb(id, errMsg, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSetMessageCallback
func rtcSetMessageCallback(id int, cb rtcMessageCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnMessage(nil)
			return errSuccess, nil
		}
		ch.OnMessage(func(msg rtcbridge.Message) {
			if ptr, ok := reg.ContextFor(id); ok {
				data, size := messageArgs(msg)
				cb(id, data, size, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcSendMessage
func rtcSendMessage(id int, data *byte, size int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		msg, err := messageFromArgs(data, size)
		if err != nil {
			return 0, err
		}
		if err := ch.Send(msg); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcClose
func rtcClose(id int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		ch.Close()
		return errSuccess, nil
	})
}

//export rtcDelete
func rtcDelete(id int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		ch.Close()
		if err := reg.EraseChannel(id); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcIsOpen
func rtcIsOpen(id int) bool {
	ch, err := reg.Channel(id)
	if err != nil {
		return false
	}
	return ch.IsOpen()
}

//export rtcIsClosed
func rtcIsClosed(id int) bool {
	ch, err := reg.Channel(id)
	if err != nil {
		return false
	}
	return ch.IsClosed()
}

//export rtcGetBufferedAmount
func rtcGetBufferedAmount(id int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		return ch.BufferedAmount(), nil
	})
}

//export rtcSetBufferedAmountLowThreshold
func rtcSetBufferedAmountLowThreshold(id int, amount int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		ch.SetBufferedAmountLowThreshold(amount)
		return errSuccess, nil
	})
}

//export rtcSetBufferedAmountLowCallback
func rtcSetBufferedAmountLowCallback(id int, cb rtcBufferedAmountLowCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnBufferedAmountLow(nil)
			return errSuccess, nil
		}
		ch.OnBufferedAmountLow(func() {
			if ptr, ok := reg.ContextFor(id); ok {
				cb(id, ptr)
			}
		})
		return errSuccess, nil
	})
}

// DataChannel and WebSocket common extended API

//export rtcGetAvailableAmount
func rtcGetAvailableAmount(id int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		return ch.AvailableAmount(), nil
	})
}

//export rtcSetAvailableCallback
func rtcSetAvailableCallback(id int, cb rtcAvailableCallbackFunc) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if cb == nil {
			ch.OnAvailable(nil)
			return errSuccess, nil
		}
		ch.OnAvailable(func() {
			if ptr, ok := reg.ContextFor(id); ok {
				cb(id, ptr)
			}
		})
		return errSuccess, nil
	})
}

//export rtcReceiveMessage
func rtcReceiveMessage(id int, buffer *byte, size *int) int {
	return wrap(func() (int, error) {
		ch, err := reg.Channel(id)
		if err != nil {
			return 0, err
		}
		if size == nil {
			return 0, rtcbridge.ErrInvalidArgument
		}
		msg, ok := ch.Peek()
		if !ok {
			return 0, rtcbridge.ErrNotAvailable
		}
		if buffer == nil {
			// Ask phase: report the required capacity without
			// consuming the message.
			if msg.Kind == rtcbridge.MessageText {
				*size = len(msg.Data) + 1
			} else {
				*size = len(msg.Data)
			}
			return errSuccess, nil
		}

		var n int
		if msg.Kind == rtcbridge.MessageText {
			n = copyAndReturnString(string(msg.Data), buffer, *size)
		} else {
			n = copyAndReturnBinary(msg.Data, buffer, *size)
		}
		if n == errTooSmall {
			return errTooSmall, nil
		}
		ch.Receive()
		if msg.Kind == rtcbridge.MessageText {
			*size = -n
		} else {
			*size = n
		}
		return errSuccess, nil
	})
}

// DataChannel

//export rtcCreateDataChannel
func rtcCreateDataChannel(pc int, label string) int {
	return rtcCreateDataChannelEx(pc, label, nil)
}

//export rtcCreateDataChannelEx
func rtcCreateDataChannelEx(pc int, label string, init *rtcbridge.DataChannelInit) int {
	return wrap(func() (int, error) {
		p, err := reg.PeerConnection(pc)
		if err != nil {
			return 0, err
		}
		channelInit := rtcbridge.NewDataChannelInit()
		if init != nil {
			channelInit = *init
		}
		dc, err := p.CreateDataChannel(label, channelInit)
		if err != nil {
			return 0, err
		}
		return reg.AddDataChannel(dc), nil
	})
}

//export rtcDeleteDataChannel
func rtcDeleteDataChannel(dc int) int {
	return wrap(func() (int, error) {
		channel, err := reg.DataChannel(dc)
		if err != nil {
			return 0, err
		}
		channel.Close()
		if err := reg.EraseDataChannel(dc); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

//export rtcGetDataChannelLabel
func rtcGetDataChannelLabel(dc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		channel, err := reg.DataChannel(dc)
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(channel.Label(), buffer, size), nil
	})
}

//export rtcGetDataChannelProtocol
func rtcGetDataChannelProtocol(dc int, buffer *byte, size int) int {
	return wrap(func() (int, error) {
		channel, err := reg.DataChannel(dc)
		if err != nil {
			return 0, err
		}
		return copyAndReturnString(channel.Protocol(), buffer, size), nil
	})
}

//export rtcGetDataChannelReliability
func rtcGetDataChannelReliability(dc int, reliability *rtcbridge.Reliability) int {
	return wrap(func() (int, error) {
		channel, err := reg.DataChannel(dc)
		if err != nil {
			return 0, err
		}
		if reliability == nil {
			return 0, rtcbridge.ErrInvalidArgument
		}
		*reliability = channel.Reliability()
		return errSuccess, nil
	})
}

// WebSocket

//export rtcCreateWebSocket
func rtcCreateWebSocket(url string) int {
	return rtcCreateWebSocketEx(url, nil)
}

//export rtcCreateWebSocketEx
func rtcCreateWebSocketEx(url string, config *rtcbridge.WsConfiguration) int {
	return wrap(func() (int, error) {
		wsConfig := rtcbridge.NewWsConfiguration()
		if config != nil {
			wsConfig = *config
		}
		ws, err := rtcbridge.NewWebSocket(hostAdapter(), url, wsConfig)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "rtcCreateWebSocketEx",
				"url":      url,
				"error":    err.Error(),
			}).Error("failed to create websocket")
			return 0, err
		}
		return reg.AddWebSocket(ws), nil
	})
}

//export rtcDeleteWebSocket
func rtcDeleteWebSocket(ws int) int {
	return wrap(func() (int, error) {
		socket, err := reg.WebSocket(ws)
		if err != nil {
			return 0, err
		}
		socket.Close()
		if err := reg.EraseWebSocket(ws); err != nil {
			return 0, err
		}
		return errSuccess, nil
	})
}

// Optional global preload and cleanup

//export rtcPreload
func rtcPreload() {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "rtcPreload",
				"panic":    r,
			}).Warn("preload panicked")
		}
	}()
	if err := hostAdapter().Preload(); err != nil {
		// Best effort only; the adapter stays usable.
		logrus.WithFields(logrus.Fields{
			"function": "rtcPreload",
			"error":    err.Error(),
		}).Warn("preload failed")
	}
}

//export rtcCleanup
func rtcCleanup() {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "rtcCleanup",
				"panic":    r,
			}).Warn("cleanup panicked")
		}
	}()
	count := reg.EraseAll()
	logrus.WithFields(logrus.Fields{
		"function": "rtcCleanup",
		"count":    count,
	}).Info("cleanup complete")
}
