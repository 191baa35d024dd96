package rtcbridge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// WebSocket is a client WebSocket connection. It implements Channel.
type WebSocket struct {
	channelCore

	url string
}

// NewWebSocket opens a WebSocket connection through the adapter and
// attaches its event sink. The connection handshake runs inside the
// adapter; the Open event fires once the transport confirms it.
func NewWebSocket(adapter HostAdapter, url string, config WsConfiguration) (*WebSocket, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty WebSocket URL", ErrInvalidArgument)
	}

	id, err := adapter.CreateWebSocket(url, config)
	if err != nil {
		return nil, fmt.Errorf("open websocket: %w", err)
	}

	ws := &WebSocket{
		channelCore: channelCore{adapter: adapter, id: id},
		url:         url,
	}
	if err := adapter.BindChannel(id, ws); err != nil {
		adapter.DeleteChannel(id)
		return nil, fmt.Errorf("bind websocket: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewWebSocket",
		"id":       id,
		"url":      url,
	}).Debug("websocket opened")
	return ws, nil
}

// URL returns the URL the socket was opened against.
func (w *WebSocket) URL() string {
	return w.url
}
