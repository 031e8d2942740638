package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mu-online/mupacket/crypto"
)

func TestParsePlaintextWithXORCipher(t *testing.T) {
	raw := []byte{0xC1, 0x06, 0xA9, 0x20, 0x9C, 0x2F}

	p, consumed, counter, err := FromBytesEx(raw, XORCipher[:], nil)
	if err != nil {
		t.Fatalf("FromBytesEx: %v", err)
	}
	if counter != nil {
		t.Fatalf("counter = %v, want nil for an unencrypted frame", counter)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}
	if p.Kind() != KindC1 || p.Code() != 0xA9 {
		t.Fatalf("kind/code = %s/%#x, want C1/0xa9", p.Kind(), p.Code())
	}
	want := []byte{0x00, 0x00, 0x01}
	if !bytes.Equal(p.Data(), want) {
		t.Fatalf("data = % x, want % x", p.Data(), want)
	}

	out, err := p.ToBytesEx(XORCipher[:], nil)
	if err != nil {
		t.Fatalf("ToBytesEx: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("re-serialized = % x, want % x", out, raw)
	}
}

func TestParseSkipsXORForExemptOpcode(t *testing.T) {
	raw := []byte{0xC2, 0x00, 0x0B, 0xF4, 0x06, 0x00, 0x01, 0x00, 0x00, 0x05, 0x77}

	p, consumed, counter, err := FromBytesEx(raw, nil, nil)
	if err != nil {
		t.Fatalf("FromBytesEx: %v", err)
	}
	if counter != nil {
		t.Fatalf("counter = %v, want nil", counter)
	}
	if consumed != 0x0B {
		t.Fatalf("consumed = %d, want 11", consumed)
	}
	if p.Kind() != KindC2 || p.Code() != 0xF4 {
		t.Fatalf("kind/code = %s/%#x, want C2/0xf4", p.Kind(), p.Code())
	}
	if len(p.Data()) == 0 || p.Data()[0] != 0x06 {
		t.Fatalf("data[0] = %#x, want 0x06", p.Data()[0])
	}
}

func TestXOROpcodeExemptionIsUnconditional(t *testing.T) {
	p := New(KindC1, 0xF4)
	p.Append([]byte{0x11, 0x22, 0x33})

	enc, err := p.ToBytesEx(XORCipher[:], nil)
	if err != nil {
		t.Fatalf("ToBytesEx: %v", err)
	}

	roundTripped, _, _, err := FromBytesEx(enc, XORCipher[:], nil)
	if err != nil {
		t.Fatalf("FromBytesEx: %v", err)
	}
	if !bytes.Equal(roundTripped.Data(), p.Data()) {
		t.Fatalf("data changed despite 0xF4 exemption: got % x, want % x", roundTripped.Data(), p.Data())
	}
}

func TestPacketLenAndIsEmpty(t *testing.T) {
	p := New(KindC1, 0x42)
	if !p.IsEmpty() {
		t.Fatalf("fresh packet reports non-empty")
	}
	if p.Len() != KindC1.HeaderOffset() {
		t.Fatalf("Len() = %d, want header offset %d", p.Len(), KindC1.HeaderOffset())
	}

	p.Append([]byte{1, 2, 3})
	if p.IsEmpty() {
		t.Fatalf("packet with payload reports empty")
	}
	if p.Len() != KindC1.HeaderOffset()+3 {
		t.Fatalf("Len() = %d, want %d", p.Len(), KindC1.HeaderOffset()+3)
	}
}

func TestRoundTripUnencrypted(t *testing.T) {
	for _, kind := range []Kind{KindC1, KindC2} {
		p := New(kind, 0x42)
		p.Append([]byte{1, 2, 3, 4, 5})

		b, err := p.ToBytesEx(XORCipher[:], nil)
		if err != nil {
			t.Fatalf("ToBytesEx(%s): %v", kind, err)
		}
		got, _, _, err := FromBytesEx(b, XORCipher[:], nil)
		if err != nil {
			t.Fatalf("FromBytesEx(%s): %v", kind, err)
		}
		if got.Kind() != kind || got.Code() != p.Code() || !bytes.Equal(got.Data(), p.Data()) {
			t.Fatalf("round trip mismatch for %s: got %+v, want %+v", kind, got, p)
		}
	}
}

func TestRoundTripBlockEncrypted(t *testing.T) {
	for _, scheme := range []crypto.Scheme{crypto.CLIENT, crypto.SERVER} {
		p := New(KindC1, 0x05)
		p.Append([]byte{0xAA, 0xBB, 0xCC})

		wire, err := p.ToBytesEx(nil, &Encryption{Scheme: &scheme, Counter: 7})
		if err != nil {
			t.Fatalf("ToBytesEx: %v", err)
		}
		if Kind(wire[0]) != KindC3 {
			t.Fatalf("encrypted wire kind = %#x, want C3", wire[0])
		}

		got, consumed, counter, err := FromBytesEx(wire, nil, &scheme)
		if err != nil {
			t.Fatalf("FromBytesEx: %v", err)
		}
		if consumed != len(wire) {
			t.Fatalf("consumed = %d, want %d", consumed, len(wire))
		}
		if counter == nil || *counter != 7 {
			t.Fatalf("counter = %v, want 7", counter)
		}
		if got.Code() != p.Code() || !bytes.Equal(got.Data(), p.Data()) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
		}
	}
}

func TestRoundTripBlockEncryptedLargePayload(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	scheme := crypto.CLIENT
	p := New(KindC2, 0x33)
	p.Append(payload)

	wire, err := p.ToBytesEx(XORCipher[:], &Encryption{Scheme: &scheme, Counter: 9})
	if err != nil {
		t.Fatalf("ToBytesEx: %v", err)
	}
	if Kind(wire[0]) != KindC4 {
		t.Fatalf("encrypted wire kind = %#x, want C4", wire[0])
	}

	got, consumed, counter, err := FromBytesEx(wire, XORCipher[:], &scheme)
	if err != nil {
		t.Fatalf("FromBytesEx: %v", err)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed = %d, want %d", consumed, len(wire))
	}
	if counter == nil || *counter != 9 {
		t.Fatalf("counter = %v, want 9", counter)
	}
	if got.Kind() != KindC2 || got.Code() != 0x33 || !bytes.Equal(got.Data(), payload) {
		t.Fatalf("round trip mismatch for a C4 frame")
	}
}

func TestFromBytesExTrailingDataLeftUnconsumed(t *testing.T) {
	p := New(KindC1, 0xF4)
	p.Append([]byte{0x03, 0x00, 0x00})
	scheme := crypto.CLIENT

	wire, err := p.ToBytesEx(nil, &Encryption{Scheme: &scheme, Counter: 0})
	if err != nil {
		t.Fatalf("ToBytesEx: %v", err)
	}
	wantWire := []byte{
		0xC3, 0x0D, 0xE3, 0xB3, 0x53, 0x9A, 0x4F, 0xC8, 0x32, 0x7D, 0x04, 0x37, 0x0F,
	}
	if !bytes.Equal(wire, wantWire) {
		t.Fatalf("wire = % x, want % x", wire, wantWire)
	}

	withTrailer := append(append([]byte(nil), wire...), 0x00)
	got, consumed, counter, err := FromBytesEx(withTrailer, nil, &scheme)
	if err != nil {
		t.Fatalf("FromBytesEx: %v", err)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed = %d, want %d (trailing byte must be left alone)", consumed, len(wire))
	}
	if counter == nil || *counter != 0 {
		t.Fatalf("counter = %v, want 0", counter)
	}
	if !bytes.Equal(got.ToBytes(), []byte{byte(KindC1), 0x06, 0xF4, 0x03, 0x00, 0x00}) {
		t.Fatalf("re-decrypted packet's plaintext bytes = % x, unexpected", got.ToBytes())
	}
}

func TestFromBytesRejectsBadKind(t *testing.T) {
	_, err := FromBytes([]byte{0x00, 0x01, 0x02})
	if !errors.Is(err, ErrNotAPacket) {
		t.Fatalf("err = %v, want ErrNotAPacket", err)
	}
}

func TestFromBytesExNeedsMoreData(t *testing.T) {
	_, _, _, err := FromBytesEx([]byte{0xC2, 0x00, 0xFF, 0x01}, nil, nil)
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
}

func TestFromBytesExMissingDecryption(t *testing.T) {
	_, _, _, err := FromBytesEx([]byte{0xC3, 0x0D, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, nil, nil)
	if !errors.Is(err, ErrMissingDecryption) {
		t.Fatalf("err = %v, want ErrMissingDecryption", err)
	}
}

func TestToBytesExOverSize(t *testing.T) {
	p := New(KindC1, 0x01)
	p.Append(make([]byte, KindC1.MaxSize()))

	_, err := p.ToBytesEx(nil, nil)
	if !errors.Is(err, ErrOverSize) {
		t.Fatalf("err = %v, want ErrOverSize", err)
	}
}

func TestIdentifierAndVerifySubcodes(t *testing.T) {
	mt := testMessageType{kind: KindC1, code: 0x30, subcodes: []byte{0x01, 0x02}}
	if got := Identifier(mt); !bytes.Equal(got, []byte{0x30, 0x01, 0x02}) {
		t.Fatalf("Identifier = % x, want 30 01 02", got)
	}

	rest, err := VerifySubcodes(mt, []byte{0x01, 0x02, 0xAA, 0xBB})
	if err != nil {
		t.Fatalf("VerifySubcodes: %v", err)
	}
	if !bytes.Equal(rest, []byte{0xAA, 0xBB}) {
		t.Fatalf("rest = % x, want aa bb", rest)
	}

	if _, err := VerifySubcodes(mt, []byte{0x01, 0x99}); err == nil {
		t.Fatalf("VerifySubcodes accepted mismatched subcodes")
	}
}

type testMessageType struct {
	kind     Kind
	code     byte
	subcodes []byte
}

func (t testMessageType) Kind() Kind       { return t.kind }
func (t testMessageType) Code() byte       { return t.code }
func (t testMessageType) Subcodes() []byte { return t.subcodes }
