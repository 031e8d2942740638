package frame

// xorSkipCode is the opcode that is exempt from stream-XOR whitening
// in both directions, unconditionally.
const xorSkipCode = 0xF4

// XORCipher is the project's default 32-byte stream-XOR table.
var XORCipher = [32]byte{
	0xE7, 0x6D, 0x3A, 0x89, 0xBC, 0xB2, 0x9F, 0x73,
	0x23, 0xA8, 0xFE, 0xB6, 0x49, 0x5D, 0x39, 0x5D,
	0x8A, 0xCB, 0x63, 0x8D, 0xEA, 0x7D, 0x2B, 0x5F,
	0xC3, 0xB1, 0xE9, 0x83, 0x29, 0x51, 0xE8, 0x56,
}

// xorCrypt applies the self-inverse CBC-style whitening described by
// the kind's header offset to data in place. encrypt selects iteration
// direction: forward for outgoing plaintext, reverse for incoming
// scrambled payload. Direction matters because each byte's mask is
// XORed with the adjacent buffer byte as it stood at that point in the
// iteration.
func xorCrypt(cipher []byte, kind Kind, code byte, data []byte, encrypt bool) {
	apply := func(i int) {
		var prev byte
		if i == 0 {
			prev = code
		} else {
			prev = data[i-1]
		}
		xori := (kind.HeaderOffset() + i) % len(cipher)
		data[i] ^= cipher[xori] ^ prev
	}

	if encrypt {
		for i := 0; i < len(data); i++ {
			apply(i)
		}
		return
	}
	for i := len(data) - 1; i >= 0; i-- {
		apply(i)
	}
}
