package main

import (
	"errors"
	"testing"

	"github.com/opd-ai/rtcbridge"
)

// TestWrapStatusMapping verifies the fault classification of wrap.
func TestWrapStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil error passes result through", nil, 7},
		{"invalid handle", rtcbridge.ErrInvalidHandle, errInvalid},
		{"invalid argument", rtcbridge.ErrInvalidArgument, errInvalid},
		{"not available", rtcbridge.ErrNotAvailable, errNotAvail},
		{"wrapped invalid handle", errors.Join(errors.New("context"), rtcbridge.ErrInvalidHandle), errInvalid},
		{"anything else", errors.New("boom"), errFailure},
	}
	for _, tc := range cases {
		got := wrap(func() (int, error) { return 7, tc.err })
		if got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

// TestMessageArgs verifies the encoding of outbound callback payloads.
func TestMessageArgs(t *testing.T) {
	data, size := messageArgs(rtcbridge.TextMessage("abc"))
	if size != -4 {
		t.Errorf("Expected text size -4, got %d", size)
	}
	if goString(data) != "abc" {
		t.Errorf("Expected NUL-terminated %q, got %q", "abc", goString(data))
	}

	data, size = messageArgs(rtcbridge.BinaryMessage([]byte{0x00, 0xFF}))
	if size != 2 {
		t.Errorf("Expected binary size 2, got %d", size)
	}
	if data == nil {
		t.Fatal("Expected a non-nil buffer for binary payloads")
	}

	// Empty payloads still get a valid buffer.
	data, size = messageArgs(rtcbridge.TextMessage(""))
	if size != -1 || data == nil {
		t.Errorf("Expected (-1, non-nil) for empty text, got (%d, %v)", size, data)
	}
}

// TestMessageFromArgs verifies decoding of inbound send payloads,
// including the embedded-NUL difference between the two conventions.
func TestMessageFromArgs(t *testing.T) {
	raw := []byte{'h', 'i', 0, '!'}

	msg, err := messageFromArgs(&raw[0], len(raw))
	if err != nil {
		t.Fatalf("binary decode failed: %v", err)
	}
	if msg.Kind != rtcbridge.MessageBinary || len(msg.Data) != 4 {
		t.Errorf("Expected 4-byte binary message, got %+v", msg)
	}

	msg, err = messageFromArgs(&raw[0], -1)
	if err != nil {
		t.Fatalf("text decode failed: %v", err)
	}
	if msg.Kind != rtcbridge.MessageText || string(msg.Data) != "hi" {
		t.Errorf("Expected text %q up to the terminator, got %+v", "hi", msg)
	}

	if _, err := messageFromArgs(nil, 3); !errors.Is(err, rtcbridge.ErrInvalidArgument) {
		t.Errorf("Expected invalid-argument for nil data with nonzero size, got %v", err)
	}
	msg, err = messageFromArgs(nil, 0)
	if err != nil || msg.Kind != rtcbridge.MessageBinary || len(msg.Data) != 0 {
		t.Errorf("Expected empty binary message for (nil, 0), got (%+v, %v)", msg, err)
	}
}

// TestCopyAndReturnString covers the three phases of the string
// output protocol.
func TestCopyAndReturnString(t *testing.T) {
	if got := copyAndReturnString("offer", nil, 0); got != 6 {
		t.Errorf("Expected required size 6, got %d", got)
	}

	buf := make([]byte, 3)
	if got := copyAndReturnString("offer", &buf[0], len(buf)); got != errTooSmall {
		t.Errorf("Expected %d for undersized buffer, got %d", errTooSmall, got)
	}

	buf = make([]byte, 6)
	if got := copyAndReturnString("offer", &buf[0], len(buf)); got != 6 {
		t.Errorf("Expected 6 bytes written, got %d", got)
	}
	if string(buf) != "offer\x00" {
		t.Errorf("Expected %q, got %q", "offer\x00", buf)
	}
}
