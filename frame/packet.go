package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mu-online/mupacket/crypto"
)

var (
	// ErrNotAPacket is returned when the leading wire byte is not one of
	// C1..C4.
	ErrNotAPacket = errors.New("frame: not a packet")
	// ErrShortRead is returned when fewer bytes are available than the
	// size field claims. Callers composing a stream codec should treat
	// this as "need more data" rather than a hard failure.
	ErrShortRead = errors.New("frame: missing data")
	// ErrMissingDecryption is returned when an encrypted frame (C3/C4)
	// is parsed without a key schedule to decrypt it.
	ErrMissingDecryption = errors.New("frame: missing decryption for packet")
	// ErrOverSize is returned when serializing a packet would exceed its
	// kind's maximum representable size.
	ErrOverSize = errors.New("frame: packet exceeds kind maximum size")
)

// Packet is the in-memory, decrypted view of a frame: a plaintext kind
// (C1 or C2), an opcode, and a payload with the opcode already
// stripped.
type Packet struct {
	kind Kind
	code byte
	data []byte
}

// New creates a packet with the given kind (normalized to its
// plaintext counterpart) and opcode, and an empty payload.
func New(kind Kind, code byte) Packet {
	return Packet{kind: kind.Decrypted(), code: code}
}

// Append extends the packet's payload.
func (p *Packet) Append(b []byte) {
	p.data = append(p.data, b...)
}

// Len returns the total framed length: header plus payload. No bounds
// check is performed here; ToBytesEx enforces the kind's maximum size
// at serialization time.
func (p Packet) Len() int {
	return p.kind.HeaderOffset() + len(p.data)
}

// IsEmpty reports whether the packet carries no payload beyond its
// opcode.
func (p Packet) IsEmpty() bool {
	return len(p.data) == 0
}

func (p Packet) Kind() Kind   { return p.kind }
func (p Packet) Code() byte   { return p.code }
func (p Packet) Data() []byte { return p.data }

// Encryption carries the block-transform scheme and the counter value
// to embed when serializing a packet as an encrypted frame.
type Encryption struct {
	Scheme  *crypto.Scheme
	Counter byte
}

// ToBytes serializes the packet with no XOR cipher and no block
// encryption.
func (p Packet) ToBytes() []byte {
	b, _ := p.ToBytesEx(nil, nil)
	return b
}

// ToBytesEx serializes the packet. With cipher non-nil and the opcode
// not 0xF4, the payload is whitened in place before framing. With enc
// non-nil, the bytes enc.Counter, opcode and payload are block-encrypted
// under enc's scheme (the counter is the first byte of the encrypted
// plaintext) and framed under the kind's encrypted counterpart
// (C1->C3, C2->C4).
func (p Packet) ToBytesEx(cipher []byte, enc *Encryption) ([]byte, error) {
	if p.Len() > p.kind.MaxSize() {
		return nil, fmt.Errorf("frame: packet length %d exceeds %s max size %d: %w", p.Len(), p.kind, p.kind.MaxSize(), ErrOverSize)
	}

	buf := make([]byte, 0, p.Len())
	if enc != nil {
		buf = append(buf, enc.Counter)
	} else {
		buf = append(buf, byte(p.kind))
		buf = appendSize(buf, p.kind, p.Len())
	}
	buf = append(buf, p.code)
	payloadOffset := len(buf)
	buf = append(buf, p.data...)

	if p.code != xorSkipCode && cipher != nil {
		xorCrypt(cipher, p.kind, p.code, buf[payloadOffset:], true)
	}

	if enc == nil {
		return buf, nil
	}

	encrypted := enc.Scheme.Encrypt(buf)
	kind := p.kind.Encrypted()
	size := len(encrypted) + kind.HeaderOffset()
	if size > kind.MaxSize() {
		return nil, fmt.Errorf("frame: encrypted packet size %d exceeds %s max size %d: %w", size, kind, kind.MaxSize(), ErrOverSize)
	}

	out := make([]byte, 0, kind.HeaderOffset()+len(encrypted))
	out = append(out, byte(kind))
	out = appendSize(out, kind, size)
	out = append(out, encrypted...)
	return out, nil
}

// FromBytes parses a packet with no XOR cipher and no block
// decryption.
func FromBytes(b []byte) (Packet, error) {
	p, _, _, err := FromBytesEx(b, nil, nil)
	return p, err
}

// FromBytesEx parses one frame from the front of b. It returns the
// decoded packet, the number of wire bytes the frame occupied, and (for
// encrypted frames only) the embedded counter byte. dec must be
// provided to parse an encrypted (C3/C4) frame; cipher, if provided, is
// applied as reverse-order XOR whitening to the recovered payload
// unless the opcode is 0xF4.
func FromBytesEx(b []byte, cipher []byte, dec *crypto.Scheme) (Packet, int, *byte, error) {
	if len(b) < 1 {
		return Packet{}, 0, nil, ErrShortRead
	}
	kind, ok := FromByte(b[0])
	if !ok {
		return Packet{}, 0, nil, ErrNotAPacket
	}

	width := kind.SizeFieldWidth()
	if len(b) < 1+width {
		return Packet{}, 0, nil, ErrShortRead
	}
	size := readSize(b[1 : 1+width])
	if len(b) < size {
		return Packet{}, 0, nil, ErrShortRead
	}

	var code byte
	var payload []byte
	var counter *byte

	if kind.IsEncrypted() {
		if dec == nil {
			return Packet{}, 0, nil, ErrMissingDecryption
		}
		decBuf, err := dec.Decrypt(b[kind.HeaderOffset():size])
		if err != nil {
			return Packet{}, 0, nil, err
		}
		if len(decBuf) < 2 {
			return Packet{}, 0, nil, fmt.Errorf("frame: decrypted %s frame holds %d bytes, too few for counter and opcode", kind, len(decBuf))
		}
		c := decBuf[0]
		counter = &c
		code = decBuf[1]
		payload = decBuf[2:]
	} else {
		pos := 1 + width
		if size < pos+1 {
			return Packet{}, 0, nil, fmt.Errorf("frame: %s frame size %d too small to hold an opcode", kind, size)
		}
		code = b[pos]
		payload = b[pos+1 : size]
	}

	p := New(kind.Decrypted(), code)
	p.Append(payload)

	if code != xorSkipCode && cipher != nil {
		xorCrypt(cipher, p.kind, code, p.data, false)
	}

	return p, size, counter, nil
}

func appendSize(buf []byte, k Kind, size int) []byte {
	if k.SizeFieldWidth() == 1 {
		return append(buf, byte(size))
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(size))
	return append(buf, b[:]...)
}

func readSize(b []byte) int {
	if len(b) == 1 {
		return int(b[0])
	}
	return int(binary.BigEndian.Uint16(b))
}
