package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/mu-online/mupacket/internal/bitpack"
)

const (
	// blockIn is the plaintext block size consumed by Encrypt.
	blockIn = 8
	// blockOut is the ciphertext block size produced by Encrypt.
	blockOut = 11
)

// Encrypt expands data into a ciphertext (blockOut/blockIn)x its length,
// rounded up to a whole number of 8-byte input blocks. The final partial
// block (if any) is zero-padded; Decrypt recovers the true trailing
// length from the block's embedded length byte.
func (s Scheme) Encrypt(data []byte) []byte {
	blocks := (len(data) + blockIn - 1) / blockIn
	out := make([]byte, blocks*blockOut)
	for i := 0; i < blocks; i++ {
		lo := i * blockIn
		hi := lo + blockIn
		if hi > len(data) {
			hi = len(data)
		}
		s.convert8to11(out[i*blockOut:(i+1)*blockOut], data[lo:hi])
	}
	return out
}

// Decrypt reverses Encrypt, recovering the original byte slice. It
// returns ErrChecksumFailed if data is not a whole number of 11-byte
// blocks, or if any block's trailing checksum does not match.
func (s Scheme) Decrypt(data []byte) ([]byte, error) {
	if len(data)%blockOut != 0 {
		return nil, fmt.Errorf("crypto: ciphertext length %d not a multiple of %d: %w", len(data), blockOut, ErrChecksumFailed)
	}
	blocks := len(data) / blockOut
	out := make([]byte, blocks*blockIn)
	total := 0
	for i := 0; i < blocks; i++ {
		n, err := s.convert11to8(out[i*blockIn:(i+1)*blockIn], data[i*blockOut:(i+1)*blockOut])
		if err != nil {
			return nil, err
		}
		total += n
	}
	return out[:total], nil
}

// convert8to11 transforms one 8-byte (or shorter, zero-padded) plaintext
// block into its 11-byte ciphertext form.
func (s Scheme) convert8to11(out []byte, plain []byte) {
	var input [blockIn]byte
	copy(input[:], plain)

	var enc [4]uint32
	var crypt uint32
	for i := 0; i < 4; i++ {
		v := uint32(input[2*i]) | uint32(input[2*i+1])<<8
		v ^= s.encrypt[12+i] ^ crypt
		v *= s.encrypt[4+i]
		v %= s.encrypt[i]
		crypt = v & 0xFFFF
		enc[i] = v
	}
	for i := 0; i < 3; i++ {
		enc[i] ^= s.encrypt[12+i] ^ (enc[i+1] & 0xFFFF)
	}

	pos := 0
	for _, v := range enc {
		var vb [4]byte
		binary.LittleEndian.PutUint32(vb[:], v)
		pos = bitpack.HashBuffer(out, pos, vb[:], 0, 16)
		pos = bitpack.HashBuffer(out, pos, vb[:], 22, 2)
	}

	xor := byte(0xF8)
	for _, b := range input {
		xor ^= b
	}
	finale := [4]byte{xor ^ byte(len(plain)) ^ 0x3D, xor, 0, 0}
	bitpack.HashBuffer(out, pos, finale[:], 0, 16)
}

// convert11to8 reverses convert8to11, writing the recovered bytes (up to
// blockIn of them) into out and returning how many of them are
// meaningful (the rest is zero padding that was present in the original
// plaintext block).
func (s Scheme) convert11to8(out []byte, cipher []byte) (int, error) {
	var dec [4]uint32
	offset := 0
	for i := 0; i < 4; i++ {
		var data [4]byte
		bitpack.HashBuffer(data[:], 0, cipher, offset, 16)
		offset += 16
		bitpack.HashBuffer(data[:], 22, cipher, offset, 2)
		offset += 2
		dec[i] = binary.LittleEndian.Uint32(data[:])
	}
	for i := 2; i >= 0; i-- {
		dec[i] ^= s.decrypt[12+i] ^ (dec[i+1] & 0xFFFF)
	}

	var crypt uint32
	for i := 0; i < 4; i++ {
		orig := s.decrypt[8+i] * dec[i]
		orig %= s.decrypt[i]
		orig ^= s.decrypt[i+12] ^ crypt
		crypt = dec[i] & 0xFFFF
		binary.LittleEndian.PutUint16(out[2*i:], uint16(orig))
	}

	var finale [4]byte
	bitpack.HashBuffer(finale[:], 0, cipher, offset, 16)
	finale[0] ^= finale[1] ^ 0x3D

	xor := byte(0xF8)
	for _, b := range out {
		xor ^= b
	}
	if finale[1] != xor {
		return 0, ErrChecksumFailed
	}
	return int(finale[0]), nil
}
