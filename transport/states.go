package transport

import (
	"github.com/pion/webrtc/v3"

	"github.com/opd-ai/rtcbridge"
)

func mapConnectionState(s webrtc.PeerConnectionState) rtcbridge.State {
	switch s {
	case webrtc.PeerConnectionStateConnecting:
		return rtcbridge.StateConnecting
	case webrtc.PeerConnectionStateConnected:
		return rtcbridge.StateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return rtcbridge.StateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return rtcbridge.StateFailed
	case webrtc.PeerConnectionStateClosed:
		return rtcbridge.StateClosed
	default:
		return rtcbridge.StateNew
	}
}

func mapIceConnectionState(s webrtc.ICEConnectionState) rtcbridge.IceState {
	switch s {
	case webrtc.ICEConnectionStateChecking:
		return rtcbridge.IceStateChecking
	case webrtc.ICEConnectionStateConnected:
		return rtcbridge.IceStateConnected
	case webrtc.ICEConnectionStateCompleted:
		return rtcbridge.IceStateCompleted
	case webrtc.ICEConnectionStateFailed:
		return rtcbridge.IceStateFailed
	case webrtc.ICEConnectionStateDisconnected:
		return rtcbridge.IceStateDisconnected
	case webrtc.ICEConnectionStateClosed:
		return rtcbridge.IceStateClosed
	default:
		return rtcbridge.IceStateNew
	}
}

func mapGatheringState(s webrtc.ICEGathererState) rtcbridge.GatheringState {
	switch s {
	case webrtc.ICEGathererStateGathering:
		return rtcbridge.GatheringStateInProgress
	case webrtc.ICEGathererStateComplete, webrtc.ICEGathererStateClosed:
		return rtcbridge.GatheringStateComplete
	default:
		return rtcbridge.GatheringStateNew
	}
}

func mapSignalingState(s webrtc.SignalingState) rtcbridge.SignalingState {
	switch s {
	case webrtc.SignalingStateHaveLocalOffer:
		return rtcbridge.SignalingStateHaveLocalOffer
	case webrtc.SignalingStateHaveRemoteOffer:
		return rtcbridge.SignalingStateHaveRemoteOffer
	case webrtc.SignalingStateHaveLocalPranswer:
		return rtcbridge.SignalingStateHaveLocalPranswer
	case webrtc.SignalingStateHaveRemotePranswer:
		return rtcbridge.SignalingStateHaveRemotePranswer
	default:
		return rtcbridge.SignalingStateStable
	}
}
