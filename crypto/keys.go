// Package crypto implements Mu Online's block transform: a bespoke
// modular-arithmetic cipher that expands every 8 input bytes into an
// 11-byte ciphertext block, keyed by a pair of 54-byte schedules loaded
// from the game client's Enc*.dat/Dec*.dat resources.
package crypto

import (
	"encoding/binary"
	"errors"
)

// BlobSize is the length of a raw key-schedule resource (Enc1.dat,
// Dec1.dat, Enc2.dat, Dec2.dat in the original client distribution): a
// 6-byte prologue the loader skips, followed by up to twelve
// little-endian u32 words.
const BlobSize = 54

// keyCipher XORs every word read out of a key blob. It is the one
// constant shared by both the encrypt and decrypt schedules regardless
// of which resource file they were loaded from.
var keyCipher = [4]uint32{0x3F08A79B, 0xE25CC287, 0x93D27AB9, 0x20DEA7BF}

// scheduleRows selects which of the four 4-word rows in a blob are
// present. A false row contributes four zeroed slots instead of reading
// from the blob: the encrypt schedule has no use for row 2 (the
// decrypt-only multiplier), and the decrypt schedule has no use for
// row 1 (the encrypt-only multiplier).
var (
	encryptRows = [4]bool{true, true, false, true}
	decryptRows = [4]bool{true, false, true, true}
)

// loadKeySchedule decodes a 54-byte blob into the 16-word table used by
// the block transform: four rows of four words (modulus, multiplier,
// unused-or-multiplier, xor mask), each word XORed with keyCipher once
// read.
func loadKeySchedule(blob [BlobSize]byte, rows [4]bool) [16]uint32 {
	var out [16]uint32
	pos := 6
	slot := 0
	for _, present := range rows {
		for col := 0; col < 4; col++ {
			if present {
				out[slot] = binary.LittleEndian.Uint32(blob[pos:]) ^ keyCipher[col]
				pos += 4
			}
			slot++
		}
	}
	return out
}

// Scheme is a loaded Mu Online key schedule: the encrypt table used by
// Encrypt and the decrypt table used by Decrypt. The two tables are
// independent (they are typically loaded from separate Enc*.dat and
// Dec*.dat resources) but must describe inverse transforms of each
// other — see LoadScheme.
type Scheme struct {
	encrypt [16]uint32
	decrypt [16]uint32
}

// LoadScheme builds a Scheme from a matching pair of 54-byte key-schedule
// blobs: one for the encrypt direction, one for decrypt. The two blobs
// must originate from the same key material (as the genuine client's
// Enc/Dec resource pairs do) — LoadScheme performs no consistency check
// of its own, since that would require exercising the transform itself.
func LoadScheme(enc, dec [BlobSize]byte) Scheme {
	return Scheme{
		encrypt: loadKeySchedule(enc, encryptRows),
		decrypt: loadKeySchedule(dec, decryptRows),
	}
}

// Default key material, equivalent to the Enc1.dat/Dec1.dat and
// Enc2.dat/Dec2.dat resources shipped with the stock game client. The
// 6-byte prologue carries no key material and is zeroed here; the twelve
// words that follow are stored pre-XORed with keyCipher, exactly as the
// original resource files store them. Deployments running against a
// client with swapped-out resources pass their own pair to LoadScheme.
var (
	clientEncBlob = [BlobSize]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xd4, 0x53, 0x09, 0x3f, 0x01, 0x41, 0x5e, 0xe2, 0xe2, 0x68, 0xd3, 0x93,
		0x2d, 0x06, 0xdf, 0x20, 0x5a, 0xfc, 0x08, 0x3f, 0x00, 0xec, 0x5c, 0xe2,
		0xd1, 0x37, 0xd2, 0x93, 0xf0, 0x92, 0xde, 0x20, 0x86, 0x1a, 0x08, 0x3f,
		0xd2, 0x76, 0x5c, 0xe2, 0xfa, 0x41, 0xd2, 0x93, 0x86, 0x35, 0xde, 0x20,
	}
	clientDecBlob = [BlobSize]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xd4, 0x53, 0x09, 0x3f, 0x01, 0x41, 0x5e, 0xe2, 0xe2, 0x68, 0xd3, 0x93,
		0x2d, 0x06, 0xdf, 0x20, 0xa3, 0xdc, 0x08, 0x3f, 0x78, 0xc5, 0x5c, 0xe2,
		0x0a, 0xa4, 0xd2, 0x93, 0x78, 0x80, 0xde, 0x20, 0x86, 0x1a, 0x08, 0x3f,
		0xd2, 0x76, 0x5c, 0xe2, 0xfa, 0x41, 0xd2, 0x93, 0x86, 0x35, 0xde, 0x20,
	}
	serverEncBlob = [BlobSize]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xf5, 0xb9, 0x09, 0x3f, 0x22, 0x6f, 0x5d, 0xe2, 0xa2, 0xf8, 0xd3, 0x93,
		0x8d, 0x3b, 0xdc, 0x20, 0xea, 0x94, 0x08, 0x3f, 0xdb, 0x88, 0x5c, 0xe2,
		0x23, 0xf0, 0xd2, 0x93, 0x2c, 0xd4, 0xde, 0x20, 0xaf, 0x55, 0x08, 0x3f,
		0x1e, 0x39, 0x5c, 0xe2, 0x97, 0xf0, 0xd2, 0x93, 0xe8, 0x5b, 0xde, 0x20,
	}
	serverDecBlob = [BlobSize]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xf5, 0xb9, 0x09, 0x3f, 0x22, 0x6f, 0x5d, 0xe2, 0xa2, 0xf8, 0xd3, 0x93,
		0x8d, 0x3b, 0xdc, 0x20, 0xe8, 0xe1, 0x08, 0x3f, 0x03, 0xb4, 0x5c, 0xe2,
		0xc4, 0x1a, 0xd2, 0x93, 0x3a, 0x8c, 0xde, 0x20, 0xaf, 0x55, 0x08, 0x3f,
		0x1e, 0x39, 0x5c, 0xe2, 0x97, 0xf0, 0xd2, 0x93, 0xe8, 0x5b, 0xde, 0x20,
	}
)

// CLIENT is the scheme used to encrypt packets sent from the client to
// the server (and decrypt the server's C3/C4 replies addressed to it).
var CLIENT = LoadScheme(clientEncBlob, clientDecBlob)

// SERVER is the scheme used to encrypt packets sent from the server to
// the client (and decrypt the client's C3/C4 requests addressed to it).
var SERVER = LoadScheme(serverEncBlob, serverDecBlob)

// ErrChecksumFailed is returned by Scheme.Decrypt when a decoded block's
// trailing checksum does not match the bytes it recovered, indicating
// either a corrupted ciphertext or a Scheme whose encrypt/decrypt tables
// do not describe inverse transforms.
var ErrChecksumFailed = errors.New("crypto: block checksum mismatch")
