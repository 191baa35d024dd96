package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
)

// channelEndpoint is the adapter-side view of a data channel or
// WebSocket.
type channelEndpoint interface {
	bind(sink rtcbridge.ChannelSink) error
	send(msg rtcbridge.Message) error
	bufferedAmount() (int, error)
	setThreshold(amount int) error
	info() (label, protocol string, rel rtcbridge.Reliability, err error)
	close()
}

// Adapter is the production HostAdapter over pion/webrtc and
// gorilla/websocket. Create one with NewAdapter.
type Adapter struct {
	api      *webrtc.API
	instance string

	mu       sync.Mutex
	lastID   int
	peers    map[int]*peerEndpoint
	channels map[int]channelEndpoint
	cert     *webrtc.Certificate
}

// NewAdapter creates an adapter with pion logging routed into logrus.
func NewAdapter() *Adapter {
	se := webrtc.SettingEngine{LoggerFactory: logrusLoggerFactory{}}
	a := &Adapter{
		api:      webrtc.NewAPI(webrtc.WithSettingEngine(se)),
		instance: uuid.NewString(),
		peers:    make(map[int]*peerEndpoint),
		channels: make(map[int]channelEndpoint),
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewAdapter",
		"instance": a.instance,
	}).Info("transport adapter created")
	return a
}

// Preload implements rtcbridge.HostAdapter. It pre-generates the DTLS
// certificate shared by subsequent peer connections, the most
// expensive part of connection setup. Best effort: on failure each
// peer connection generates its own certificate as usual.
func (a *Adapter) Preload() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cert != nil {
		return nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate certificate key: %w", err)
	}
	cert, err := webrtc.GenerateCertificate(key)
	if err != nil {
		return fmt.Errorf("generate certificate: %w", err)
	}
	a.cert = cert
	return nil
}

// nextID assigns the next adapter-side ID. Peer connections and
// channels share the space so an ID never names two objects.
func (a *Adapter) nextID() int {
	a.lastID++
	return a.lastID
}

// addChannel registers an endpoint and returns its adapter ID.
func (a *Adapter) addChannel(ep channelEndpoint) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID()
	a.channels[id] = ep
	return id
}

func (a *Adapter) channel(id int) (channelEndpoint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ep, ok := a.channels[id]; ok {
		return ep, nil
	}
	return nil, fmt.Errorf("%w: no channel %d", rtcbridge.ErrInvalidHandle, id)
}

func (a *Adapter) peer(id int) (*peerEndpoint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.peers[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no peer connection %d", rtcbridge.ErrInvalidHandle, id)
}

// BindChannel implements rtcbridge.HostAdapter.
func (a *Adapter) BindChannel(id int, sink rtcbridge.ChannelSink) error {
	ep, err := a.channel(id)
	if err != nil {
		return err
	}
	return ep.bind(sink)
}

// DeleteChannel implements rtcbridge.HostAdapter.
func (a *Adapter) DeleteChannel(id int) {
	a.mu.Lock()
	ep, ok := a.channels[id]
	delete(a.channels, id)
	a.mu.Unlock()

	if ok {
		ep.close()
	}
}

// Send implements rtcbridge.HostAdapter.
func (a *Adapter) Send(id int, msg rtcbridge.Message) error {
	ep, err := a.channel(id)
	if err != nil {
		return err
	}
	return ep.send(msg)
}

// BufferedAmount implements rtcbridge.HostAdapter.
func (a *Adapter) BufferedAmount(id int) (int, error) {
	ep, err := a.channel(id)
	if err != nil {
		return 0, err
	}
	return ep.bufferedAmount()
}

// SetBufferedAmountLowThreshold implements rtcbridge.HostAdapter.
func (a *Adapter) SetBufferedAmountLowThreshold(id int, amount int) error {
	ep, err := a.channel(id)
	if err != nil {
		return err
	}
	return ep.setThreshold(amount)
}

// DataChannelInfo implements rtcbridge.HostAdapter.
func (a *Adapter) DataChannelInfo(id int) (string, string, rtcbridge.Reliability, error) {
	ep, err := a.channel(id)
	if err != nil {
		return "", "", rtcbridge.Reliability{}, err
	}
	return ep.info()
}
