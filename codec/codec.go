// Package codec implements the stateful Mu Online stream codec: a
// pair of independent per-direction encode/decode states layered over
// package frame, maintaining the monotonic encryption counter each
// direction embeds in its encrypted frames.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mu-online/mupacket/crypto"
	"github.com/mu-online/mupacket/frame"
)

var (
	// ErrBadKind is returned when the leading wire byte of a frame is
	// not one of C1..C4.
	ErrBadKind = frame.ErrNotAPacket
	// ErrMissingDecryption is returned when an encrypted frame arrives
	// on a State with no Crypto scheme configured.
	ErrMissingDecryption = frame.ErrMissingDecryption
	// ErrChecksumFailed is returned when the block transform detects a
	// corrupted ciphertext block.
	ErrChecksumFailed = crypto.ErrChecksumFailed
	// ErrOverSize is returned when a frame would exceed its kind's
	// maximum size, or the receive buffer exceeds a configured cap
	// before a complete frame arrives.
	ErrOverSize = frame.ErrOverSize
)

// State is one direction's codec configuration: an optional stream-XOR
// table, an optional block-transform scheme, and the one-byte counter
// that direction advances once per encrypted frame.
type State struct {
	Cipher  *[32]byte
	Crypto  *crypto.Scheme
	counter byte
}

// NewState builds a State with its counter initialized to zero.
func NewState(cipher *[32]byte, scheme *crypto.Scheme) State {
	return State{Cipher: cipher, Crypto: scheme}
}

// Counter returns the direction's current counter value.
func (s State) Counter() byte { return s.counter }

func (s State) cipherBytes() []byte {
	if s.Cipher == nil {
		return nil
	}
	return s.Cipher[:]
}

// CounterMismatchError reports that a decoded frame's embedded counter
// disagreed with the receive state's expected counter — a fatal
// indication of replay, reordering, or tampering.
type CounterMismatchError struct {
	Got, Want byte
}

func (e *CounterMismatchError) Error() string {
	return fmt.Sprintf("codec: invalid decryption counter %d, expected %d", e.Got, e.Want)
}

// Codec pairs a send State and a receive State over a byte stream,
// optionally capping the size of a single inbound frame.
type Codec struct {
	send, recv State
	maxSize    int
}

// New creates a Codec with no receive-buffer size cap.
func New(send, recv State) *Codec {
	return &Codec{send: send, recv: recv}
}

// WithMaxSize creates a Codec that rejects input buffers longer than
// maxSize before a complete frame has been decoded from them.
func WithMaxSize(send, recv State, maxSize int) *Codec {
	return &Codec{send: send, recv: recv, maxSize: maxSize}
}

// Send returns the codec's send-direction state.
func (c *Codec) Send() State { return c.send }

// Recv returns the codec's receive-direction state.
func (c *Codec) Recv() State { return c.recv }

// Encode serializes p using the send state and appends the wire bytes
// to out, then, when the send state has a Crypto scheme (so the frame
// was encrypted), advances the send counter modulo 256. It fails only if
// p cannot be represented within its kind's size limit.
func (c *Codec) Encode(p frame.Packet, out *bytes.Buffer) error {
	var enc *frame.Encryption
	if c.send.Crypto != nil {
		enc = &frame.Encryption{Scheme: c.send.Crypto, Counter: c.send.counter}
	}

	wire, err := p.ToBytesEx(c.send.cipherBytes(), enc)
	if err != nil {
		return err
	}
	out.Write(wire)

	if enc != nil {
		c.send.counter++
	}
	return nil
}

// Decode attempts to parse one frame from the front of in. It returns
// (nil, nil) when in does not yet hold a complete frame — the caller
// should read more bytes and retry. On success the consumed bytes are
// removed from the front of in and the receive counter is advanced (for
// encrypted frames). Decode never consumes bytes it has not fully
// parsed, so partial input is safely retryable.
func (c *Codec) Decode(in *bytes.Buffer) (*frame.Packet, error) {
	if in.Len() == 0 {
		return nil, nil
	}
	if c.maxSize > 0 && in.Len() > c.maxSize {
		return nil, fmt.Errorf("codec: receive buffer of %d bytes exceeds max size %d: %w", in.Len(), c.maxSize, ErrOverSize)
	}

	raw := in.Bytes()
	p, consumed, counter, err := frame.FromBytesEx(raw, c.recv.cipherBytes(), c.recv.Crypto)
	if err != nil {
		if errors.Is(err, frame.ErrShortRead) {
			return nil, nil
		}
		return nil, err
	}

	if counter != nil {
		if *counter != c.recv.counter {
			return nil, &CounterMismatchError{Got: *counter, Want: c.recv.counter}
		}
		c.recv.counter++
	}

	in.Next(consumed)
	return &p, nil
}
