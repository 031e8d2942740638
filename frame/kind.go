// Package frame implements Mu Online's wire frame: the four header
// shapes (C1-C4), payload assembly/parsing, the stream-XOR whitening
// layer, and the narrow message-identity surface handed to a
// serialization collaborator.
package frame

import "fmt"

// Kind is the one-byte frame discriminator selecting header shape and
// size-field width.
type Kind byte

const (
	KindC1 Kind = 0xC1
	KindC2 Kind = 0xC2
	KindC3 Kind = 0xC3
	KindC4 Kind = 0xC4
)

// FromByte converts a wire byte into a Kind, reporting false if it is
// not one of C1..C4.
func FromByte(b byte) (Kind, bool) {
	switch Kind(b) {
	case KindC1, KindC2, KindC3, KindC4:
		return Kind(b), true
	default:
		return 0, false
	}
}

// MaxSize returns the largest total framed length the kind's size
// field can express.
func (k Kind) MaxSize() int {
	if k.SizeFieldWidth() == 1 {
		return 0xFF
	}
	return 0xFFFF
}

// SizeFieldWidth returns the number of bytes used by the kind's
// big-endian size field.
func (k Kind) SizeFieldWidth() int {
	switch k {
	case KindC1, KindC3:
		return 1
	default:
		return 2
	}
}

// IsEncrypted reports whether the kind denotes a block-encrypted frame
// (C3 or C4).
func (k Kind) IsEncrypted() bool {
	return k == KindC3 || k == KindC4
}

// HeaderOffset returns the kind's header length: size-field width plus
// one opcode byte, plus a further byte for plaintext kinds (the byte
// that an encrypted frame instead carries as the first byte of its
// ciphertext, the encryption counter).
func (k Kind) HeaderOffset() int {
	extra := 2
	if k.IsEncrypted() {
		extra = 1
	}
	return k.SizeFieldWidth() + extra
}

// Encrypted returns the block-encrypted counterpart of k (C1->C3,
// C2->C4); already-encrypted kinds are returned unchanged.
func (k Kind) Encrypted() Kind {
	switch k {
	case KindC1:
		return KindC3
	case KindC2:
		return KindC4
	default:
		return k
	}
}

// Decrypted returns the plaintext counterpart of k (C3->C1, C4->C2);
// already-plaintext kinds are returned unchanged.
func (k Kind) Decrypted() Kind {
	switch k {
	case KindC3:
		return KindC1
	case KindC4:
		return KindC2
	default:
		return k
	}
}

func (k Kind) String() string {
	switch k {
	case KindC1:
		return "C1"
	case KindC2:
		return "C2"
	case KindC3:
		return "C3"
	case KindC4:
		return "C4"
	default:
		return fmt.Sprintf("Kind(0x%02X)", byte(k))
	}
}
