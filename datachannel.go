package rtcbridge

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DataChannel is a message channel running over a PeerConnection. It
// implements Channel. Instances are created through
// PeerConnection.CreateDataChannel or wrapped around an incoming
// adapter channel by NewDataChannel.
type DataChannel struct {
	channelCore

	label       string
	protocol    string
	reliability Reliability
}

// NewDataChannel wraps an adapter-side data channel in a resource and
// attaches its event sink. The label, subprotocol and reliability are
// queried once at construction, as they never change afterwards.
func NewDataChannel(adapter HostAdapter, adapterID int) (*DataChannel, error) {
	label, protocol, rel, err := adapter.DataChannelInfo(adapterID)
	if err != nil {
		return nil, fmt.Errorf("query data channel info: %w", err)
	}

	dc := &DataChannel{
		channelCore: channelCore{adapter: adapter, id: adapterID},
		label:       label,
		protocol:    protocol,
		reliability: rel,
	}
	if err := adapter.BindChannel(adapterID, dc); err != nil {
		return nil, fmt.Errorf("bind data channel: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDataChannel",
		"id":       adapterID,
		"label":    label,
	}).Debug("data channel wrapped")
	return dc, nil
}

// Label returns the channel label.
func (d *DataChannel) Label() string {
	return d.label
}

// Protocol returns the channel subprotocol, empty if none was
// negotiated.
func (d *DataChannel) Protocol() string {
	return d.protocol
}

// Reliability returns the channel delivery guarantees.
func (d *DataChannel) Reliability() Reliability {
	return d.reliability
}
