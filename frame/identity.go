package frame

import (
	"bytes"
	"fmt"
)

// MessageType is the narrow identity contract a concrete message type
// exposes to its serialization collaborator: which frame kind it
// travels in, its opcode, and any subcode bytes leading its payload.
type MessageType interface {
	Kind() Kind
	Code() byte
	Subcodes() []byte
}

// Identifier returns the bytes that distinguish m on the wire: its
// opcode followed by its subcodes.
func Identifier(m MessageType) []byte {
	return append([]byte{m.Code()}, m.Subcodes()...)
}

// VerifySubcodes checks that data begins with m's subcode bytes and
// returns the remainder, ready for the serialization collaborator to
// decode.
func VerifySubcodes(m MessageType, data []byte) ([]byte, error) {
	subs := m.Subcodes()
	if len(data) < len(subs) {
		return nil, fmt.Errorf("frame: payload too short for subcodes: have %d bytes, want %d", len(data), len(subs))
	}
	if !bytes.Equal(data[:len(subs)], subs) {
		return nil, fmt.Errorf("frame: subcode mismatch: got % x, want % x", data[:len(subs)], subs)
	}
	return data[len(subs):], nil
}
