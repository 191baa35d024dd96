package rtcbridge

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
)

// Channel is the capability shared by DataChannel and WebSocket:
// sending, receiving, lifecycle queries and single-slot event
// callbacks. At most one callback is stored per event kind; setting a
// callback replaces the previous one and setting nil clears it.
type Channel interface {
	// Send forwards a payload to the host transport. It fails with
	// ErrNotOpen before the transport confirms the channel open and
	// with ErrClosed once the transport resource is released.
	Send(msg Message) error

	// Close releases the transport resource. It is idempotent and
	// does not itself fire the Closed event; only a host-delivered
	// closure signal does.
	Close()

	// IsOpen reports whether the transport has confirmed the channel
	// open and it has not been closed since.
	IsOpen() bool

	// IsClosed reports whether the transport resource has been
	// released. This may become true before any Closed event fires.
	IsClosed() bool

	// BufferedAmount reports the bytes still queued for
	// transmission. A transport query failure degrades to 0.
	BufferedAmount() int

	// SetBufferedAmountLowThreshold arms the BufferedAmountLow
	// event: it fires once when queued bytes next fall to or below
	// the threshold. It does not fire retroactively.
	SetBufferedAmountLowThreshold(amount int)

	// AvailableAmount reports the bytes of inbound messages queued
	// while no message callback was registered.
	AvailableAmount() int

	// Peek returns the oldest queued inbound message without
	// removing it.
	Peek() (Message, bool)

	// Receive removes and returns the oldest queued inbound message.
	Receive() (Message, bool)

	OnOpen(cb func())
	OnClosed(cb func())
	OnError(cb func(errMsg string))
	OnMessage(cb func(msg Message))
	OnBufferedAmountLow(cb func())
	OnAvailable(cb func())
}

// channelCore carries the Channel capability for DataChannel and
// WebSocket. The adapter ID doubles as the liveness marker: zero means
// the transport resource has been released.
type channelCore struct {
	adapter HostAdapter

	mu        sync.Mutex
	id        int
	connected bool

	openCB      func()
	closedCB    func()
	lowCB       func()
	availableCB func()
	errorCB     func(string)
	messageCB   func(Message)

	recv      *queue.Queue
	recvBytes int
}

func (c *channelCore) Send(msg Message) error {
	c.mu.Lock()
	id := c.id
	connected := c.connected
	c.mu.Unlock()

	if id == 0 {
		return ErrClosed
	}
	if !connected {
		return ErrNotOpen
	}
	return c.adapter.Send(id, msg)
}

func (c *channelCore) Close() {
	c.mu.Lock()
	c.connected = false
	id := c.id
	c.id = 0
	c.mu.Unlock()

	if id != 0 {
		c.adapter.DeleteChannel(id)
	}
}

func (c *channelCore) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *channelCore) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id == 0
}

func (c *channelCore) BufferedAmount() int {
	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	if id == 0 {
		return 0
	}
	amount, err := c.adapter.BufferedAmount(id)
	if err != nil {
		// Lossy fallback: a failed transport query reads as empty.
		logrus.WithFields(logrus.Fields{
			"function": "channelCore.BufferedAmount",
			"id":       id,
			"error":    err.Error(),
		}).Debug("buffered amount query failed, reporting 0")
		return 0
	}
	return amount
}

func (c *channelCore) SetBufferedAmountLowThreshold(amount int) {
	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	if id == 0 {
		return
	}
	if err := c.adapter.SetBufferedAmountLowThreshold(id, amount); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "channelCore.SetBufferedAmountLowThreshold",
			"id":       id,
			"error":    err.Error(),
		}).Warn("failed to set buffered amount low threshold")
	}
}

func (c *channelCore) AvailableAmount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvBytes
}

func (c *channelCore) Peek() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recv == nil || c.recv.Length() == 0 {
		return Message{}, false
	}
	return c.recv.Peek().(Message), true
}

func (c *channelCore) Receive() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recv == nil || c.recv.Length() == 0 {
		return Message{}, false
	}
	msg := c.recv.Remove().(Message)
	c.recvBytes -= len(msg.Data)
	return msg, true
}

func (c *channelCore) OnOpen(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openCB = cb
}

func (c *channelCore) OnClosed(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closedCB = cb
}

func (c *channelCore) OnError(cb func(errMsg string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCB = cb
}

func (c *channelCore) OnMessage(cb func(msg Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageCB = cb
}

func (c *channelCore) OnBufferedAmountLow(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lowCB = cb
}

func (c *channelCore) OnAvailable(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.availableCB = cb
}

// HandleOpen implements ChannelSink.
func (c *channelCore) HandleOpen() {
	c.mu.Lock()
	if c.id == 0 {
		// Closed is absorbing; a late open confirmation is ignored.
		c.mu.Unlock()
		return
	}
	c.connected = true
	cb := c.openCB
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// HandleError implements ChannelSink.
func (c *channelCore) HandleError(errMsg string) {
	if errMsg == "" {
		errMsg = "unknown"
	}
	c.mu.Lock()
	cb := c.errorCB
	c.mu.Unlock()

	if cb != nil {
		cb(errMsg)
	}
}

// HandleMessage implements ChannelSink. A nil message is the host
// closure signal: the channel closes and the Closed event fires once;
// no Message event is delivered for it.
func (c *channelCore) HandleMessage(msg *Message) {
	if msg == nil {
		c.Close()
		c.mu.Lock()
		cb := c.closedCB
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}

	c.mu.Lock()
	cb := c.messageCB
	if cb == nil {
		// No subscriber: queue the message for Receive.
		if c.recv == nil {
			c.recv = queue.New()
		}
		c.recv.Add(*msg)
		c.recvBytes += len(msg.Data)
		acb := c.availableCB
		c.mu.Unlock()
		if acb != nil {
			acb()
		}
		return
	}
	c.mu.Unlock()

	cb(*msg)
}

// HandleBufferedAmountLow implements ChannelSink.
func (c *channelCore) HandleBufferedAmountLow() {
	c.mu.Lock()
	cb := c.lowCB
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}
