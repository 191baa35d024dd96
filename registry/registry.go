// Package registry tracks live resources by opaque integer handle.
//
// A Registry is the single point of creation, lookup and erasure for
// PeerConnection, DataChannel and WebSocket resources. Handles are
// assigned from one monotonically increasing counter shared by all
// three kinds, so a handle identifies exactly one resource across the
// whole registry and is never reused while the counter has headroom.
//
// Alongside the resource maps the registry keeps an independent
// user-context map: an opaque pointer per handle, settable before the
// resource for that handle exists. Inserting a resource installs a nil
// context entry unless one was pre-registered; erasing a resource
// removes both atomically.
//
// All mutating operations are serialized by one exclusive lock. The
// lock is never held while client code runs, so a callback may safely
// re-enter the registry to create or delete resources.
package registry

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
)

// Registry owns all live resources keyed by handle. The zero value is
// not usable; call New.
type Registry struct {
	mu     sync.Mutex
	lastID int

	peerConnections map[int]*rtcbridge.PeerConnection
	dataChannels    map[int]*rtcbridge.DataChannel
	webSockets      map[int]*rtcbridge.WebSocket
	userPointers    map[int]unsafe.Pointer
}

// New creates an empty registry. The first assigned handle is 1.
func New() *Registry {
	return &Registry{
		peerConnections: make(map[int]*rtcbridge.PeerConnection),
		dataChannels:    make(map[int]*rtcbridge.DataChannel),
		webSockets:      make(map[int]*rtcbridge.WebSocket),
		userPointers:    make(map[int]unsafe.Pointer),
	}
}

// nextLocked assigns the next handle and installs the user-context
// entry, preserving a pre-registered pointer if one exists.
func (r *Registry) nextLocked() int {
	r.lastID++
	h := r.lastID
	if _, ok := r.userPointers[h]; !ok {
		r.userPointers[h] = nil
	}
	return h
}

// AddPeerConnection inserts a constructed peer connection and returns
// its handle. Construction happens before insertion, so a failed
// constructor never consumes a handle.
func (r *Registry) AddPeerConnection(pc *rtcbridge.PeerConnection) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.nextLocked()
	r.peerConnections[h] = pc
	return h
}

// AddDataChannel inserts a constructed data channel and returns its
// handle.
func (r *Registry) AddDataChannel(dc *rtcbridge.DataChannel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.nextLocked()
	r.dataChannels[h] = dc
	return h
}

// AddWebSocket inserts a constructed WebSocket and returns its handle.
func (r *Registry) AddWebSocket(ws *rtcbridge.WebSocket) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.nextLocked()
	r.webSockets[h] = ws
	return h
}

// PeerConnection resolves a handle to a live peer connection.
func (r *Registry) PeerConnection(h int) (*rtcbridge.PeerConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pc, ok := r.peerConnections[h]; ok {
		return pc, nil
	}
	return nil, rtcbridge.ErrInvalidHandle
}

// DataChannel resolves a handle to a live data channel.
func (r *Registry) DataChannel(h int) (*rtcbridge.DataChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dc, ok := r.dataChannels[h]; ok {
		return dc, nil
	}
	return nil, rtcbridge.ErrInvalidHandle
}

// WebSocket resolves a handle to a live WebSocket.
func (r *Registry) WebSocket(h int) (*rtcbridge.WebSocket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.webSockets[h]; ok {
		return ws, nil
	}
	return nil, rtcbridge.ErrInvalidHandle
}

// Channel resolves a handle to a live data channel or WebSocket, both
// viewed through the shared Channel capability.
func (r *Registry) Channel(h int) (rtcbridge.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dc, ok := r.dataChannels[h]; ok {
		return dc, nil
	}
	if ws, ok := r.webSockets[h]; ok {
		return ws, nil
	}
	return nil, rtcbridge.ErrInvalidHandle
}

// ErasePeerConnection removes a peer connection and its user-context
// entry together. A handle that is not live fails with
// ErrInvalidHandle, which is how double deletion is detected.
func (r *Registry) ErasePeerConnection(h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peerConnections[h]; !ok {
		return rtcbridge.ErrInvalidHandle
	}
	delete(r.peerConnections, h)
	delete(r.userPointers, h)
	return nil
}

// EraseDataChannel removes a data channel and its user-context entry.
func (r *Registry) EraseDataChannel(h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dataChannels[h]; !ok {
		return rtcbridge.ErrInvalidHandle
	}
	delete(r.dataChannels, h)
	delete(r.userPointers, h)
	return nil
}

// EraseWebSocket removes a WebSocket and its user-context entry.
func (r *Registry) EraseWebSocket(h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webSockets[h]; !ok {
		return rtcbridge.ErrInvalidHandle
	}
	delete(r.webSockets, h)
	delete(r.userPointers, h)
	return nil
}

// EraseChannel removes whichever channel kind is live at the handle.
func (r *Registry) EraseChannel(h int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dataChannels[h]; ok {
		delete(r.dataChannels, h)
		delete(r.userPointers, h)
		return nil
	}
	if _, ok := r.webSockets[h]; ok {
		delete(r.webSockets, h)
		delete(r.userPointers, h)
		return nil
	}
	return rtcbridge.ErrInvalidHandle
}

// SetUserPointer associates an opaque pointer with a handle. The entry
// is independent of the resource maps, so a pointer may be registered
// before the resource for that handle exists.
func (r *Registry) SetUserPointer(h int, ptr unsafe.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userPointers[h] = ptr
}

// UserPointer returns the pointer associated with a handle and whether
// an entry exists.
func (r *Registry) UserPointer(h int) (unsafe.Pointer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ptr, ok := r.userPointers[h]
	return ptr, ok
}

// ContextFor resolves the user context for event dispatch in a single
// lock acquisition. ok is true only while a resource is live at the
// handle; an event arriving for a handle that is no longer registered
// must be dropped, and this is the check that enforces it.
func (r *Registry) ContextFor(h int) (ptr unsafe.Pointer, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.peerConnections[h]; !live {
		if _, live = r.dataChannels[h]; !live {
			if _, live = r.webSockets[h]; !live {
				return nil, false
			}
		}
	}
	return r.userPointers[h], true
}

// Len reports the number of live resources of all kinds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peerConnections) + len(r.dataChannels) + len(r.webSockets)
}

// EraseAll force-closes and removes every live resource of every kind
// and clears the user-context map. It returns the number of resources
// removed. Intended for process-wide teardown only.
func (r *Registry) EraseAll() int {
	r.mu.Lock()
	pcs := make([]*rtcbridge.PeerConnection, 0, len(r.peerConnections))
	for _, pc := range r.peerConnections {
		pcs = append(pcs, pc)
	}
	chs := make([]rtcbridge.Channel, 0, len(r.dataChannels)+len(r.webSockets))
	for _, dc := range r.dataChannels {
		chs = append(chs, dc)
	}
	for _, ws := range r.webSockets {
		chs = append(chs, ws)
	}
	count := len(pcs) + len(chs)
	r.peerConnections = make(map[int]*rtcbridge.PeerConnection)
	r.dataChannels = make(map[int]*rtcbridge.DataChannel)
	r.webSockets = make(map[int]*rtcbridge.WebSocket)
	r.userPointers = make(map[int]unsafe.Pointer)
	r.mu.Unlock()

	// Close outside the lock; closing releases transport resources
	// and must not run under the registry lock.
	for _, ch := range chs {
		ch.Close()
	}
	for _, pc := range pcs {
		pc.Close()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Registry.EraseAll",
		"count":    count,
	}).Info("registry cleared")
	return count
}
