package main

import (
	"errors"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/rtcbridge"
)

// Status codes returned across the flat ABI. Nothing else crosses the
// boundary: every internal fault is reduced to one of these by wrap.
const (
	errSuccess  = 0
	errInvalid  = -1 // invalid argument or unknown handle
	errFailure  = -2 // generic runtime fault
	errNotAvail = -3 // queried value not currently present
	errTooSmall = -4 // buffer undersized
)

// wrap executes an operation and converts its fault, if any, into a
// status code. On success the operation's own non-negative result is
// returned unchanged.
func wrap(fn func() (int, error)) int {
	ret, err := fn()
	if err == nil {
		return ret
	}
	switch {
	case errors.Is(err, rtcbridge.ErrInvalidHandle), errors.Is(err, rtcbridge.ErrInvalidArgument):
		return errInvalid
	case errors.Is(err, rtcbridge.ErrNotAvailable):
		return errNotAvail
	default:
		logrus.WithFields(logrus.Fields{
			"function": "wrap",
			"error":    err.Error(),
		}).Debug("operation failed")
		return errFailure
	}
}

// copyAndReturnString implements the ask/fetch protocol for text
// output. A nil buffer asks for the required capacity: string length
// plus one for the terminator. An undersized buffer fails with
// errTooSmall and writes nothing; otherwise the full value is copied,
// NUL-terminated, and the bytes written are returned.
func copyAndReturnString(s string, buffer *byte, size int) int {
	if buffer == nil {
		return len(s) + 1
	}
	if size < len(s)+1 {
		return errTooSmall
	}
	out := unsafe.Slice(buffer, len(s)+1)
	copy(out, s)
	out[len(s)] = 0
	return len(s) + 1
}

// copyAndReturnBinary is the binary form of the ask/fetch protocol:
// the required capacity is the raw length and no terminator is
// appended.
func copyAndReturnBinary(b []byte, buffer *byte, size int) int {
	if buffer == nil {
		return len(b)
	}
	if size < len(b) {
		return errTooSmall
	}
	copy(unsafe.Slice(buffer, len(b)), b)
	return len(b)
}

// messageArgs encodes a payload for delivery through the message
// callback. The returned buffer always carries a trailing NUL; the
// size field is the payload length for binary and -(length+1) for
// text, which is the wire convention of this ABI.
func messageArgs(msg rtcbridge.Message) (*byte, int) {
	buf := make([]byte, len(msg.Data)+1)
	copy(buf, msg.Data)
	if msg.Kind == rtcbridge.MessageText {
		return &buf[0], -(len(msg.Data) + 1)
	}
	return &buf[0], len(msg.Data)
}

// messageFromArgs decodes an inbound send. A non-negative size names a
// binary payload of exactly that many bytes; a negative size names a
// NUL-terminated text payload. A nil pointer with a nonzero size is
// contradictory.
func messageFromArgs(data *byte, size int) (rtcbridge.Message, error) {
	if data == nil {
		if size != 0 {
			return rtcbridge.Message{}, rtcbridge.ErrInvalidArgument
		}
		return rtcbridge.BinaryMessage(nil), nil
	}
	if size >= 0 {
		buf := make([]byte, size)
		copy(buf, unsafe.Slice(data, size))
		return rtcbridge.BinaryMessage(buf), nil
	}
	return rtcbridge.TextMessage(goString(data)), nil
}

// goString copies a NUL-terminated C string.
func goString(p *byte) string {
	var out []byte
	for i := 0; ; i++ {
		c := *(*byte)(unsafe.Add(unsafe.Pointer(p), i))
		if c == 0 {
			return string(out)
		}
		out = append(out, c)
	}
}
