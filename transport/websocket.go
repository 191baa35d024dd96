package transport

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
)

// webSocketEndpoint adapts a gorilla client connection to
// channelEndpoint. Outbound messages go through a FIFO drained by a
// writer goroutine; the queued byte total backs bufferedAmount and the
// low-threshold crossing event.
type webSocketEndpoint struct {
	conn         *websocket.Conn
	logID        string
	pingInterval time.Duration

	mu        sync.Mutex
	sink      rtcbridge.ChannelSink
	out       *queue.Queue
	outBytes  int
	threshold int
	wasAbove  bool
	closed    bool

	wake chan struct{}
	done chan struct{}
}

// CreateWebSocket implements rtcbridge.HostAdapter.
func (a *Adapter) CreateWebSocket(url string, config rtcbridge.WsConfiguration) (int, error) {
	dialer := websocket.Dialer{
		Subprotocols: config.Protocols,
	}
	if config.ConnectTimeout > 0 {
		dialer.HandshakeTimeout = config.ConnectTimeout
	}
	if config.DisableTLSVerification {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", url, err)
	}
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(config.MaxMessageSize))
	}

	ep := &webSocketEndpoint{
		conn:         conn,
		logID:        uuid.NewString(),
		pingInterval: config.PingInterval,
		out:          queue.New(),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	id := a.addChannel(ep)

	logrus.WithFields(logrus.Fields{
		"function": "Adapter.CreateWebSocket",
		"id":       id,
		"conn":     ep.logID,
		"url":      url,
	}).Debug("websocket connected")
	return id, nil
}

func (e *webSocketEndpoint) bind(sink rtcbridge.ChannelSink) error {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()

	go e.readPump(sink)
	go e.writePump(sink)

	// The gorilla handshake completed synchronously in the dial, so
	// the open confirmation can be delivered as soon as a sink exists.
	go sink.HandleOpen()
	return nil
}

func (e *webSocketEndpoint) readPump(sink rtcbridge.ChannelSink) {
	for {
		msgType, data, err := e.conn.ReadMessage()
		if err != nil {
			if e.isClosed() {
				// Locally closed; no closure signal.
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sink.HandleError(err.Error())
			}
			sink.HandleMessage(nil)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			msg := rtcbridge.TextMessage(string(data))
			sink.HandleMessage(&msg)
		case websocket.BinaryMessage:
			msg := rtcbridge.BinaryMessage(data)
			sink.HandleMessage(&msg)
		}
	}
}

func (e *webSocketEndpoint) writePump(sink rtcbridge.ChannelSink) {
	var ping <-chan time.Time
	if e.pingInterval > 0 {
		ticker := time.NewTicker(e.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-e.done:
			return
		case <-ping:
			e.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
		case <-e.wake:
			e.drain(sink)
		}
	}
}

// drain writes queued messages and fires the low-threshold event when
// the queued byte total crosses down to the threshold.
func (e *webSocketEndpoint) drain(sink rtcbridge.ChannelSink) {
	for {
		e.mu.Lock()
		if e.closed || e.out.Length() == 0 {
			e.mu.Unlock()
			return
		}
		msg := e.out.Remove().(rtcbridge.Message)
		e.mu.Unlock()

		msgType := websocket.BinaryMessage
		if msg.Kind == rtcbridge.MessageText {
			msgType = websocket.TextMessage
		}
		if err := e.conn.WriteMessage(msgType, msg.Data); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "webSocketEndpoint.drain",
				"conn":     e.logID,
				"error":    err.Error(),
			}).Warn("websocket write failed")
		}

		e.mu.Lock()
		e.outBytes -= len(msg.Data)
		fireLow := e.wasAbove && e.outBytes <= e.threshold
		if fireLow {
			e.wasAbove = false
		}
		e.mu.Unlock()

		if fireLow {
			sink.HandleBufferedAmountLow()
		}
	}
}

func (e *webSocketEndpoint) send(msg rtcbridge.Message) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return rtcbridge.ErrClosed
	}
	e.out.Add(msg)
	e.outBytes += len(msg.Data)
	if e.outBytes > e.threshold {
		e.wasAbove = true
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

func (e *webSocketEndpoint) bufferedAmount() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outBytes, nil
}

func (e *webSocketEndpoint) setThreshold(amount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threshold = amount
	// Arm only for a future crossing; no retroactive event.
	e.wasAbove = e.outBytes > amount
	return nil
}

func (e *webSocketEndpoint) info() (string, string, rtcbridge.Reliability, error) {
	return "", "", rtcbridge.Reliability{}, fmt.Errorf("%w: not a data channel", rtcbridge.ErrInvalidHandle)
}

func (e *webSocketEndpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *webSocketEndpoint) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	e.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	e.conn.Close()
}
