// Package bitpack implements a non-byte-aligned bit-buffer copy used by
// the Mu Online block transform to pack 18-bit fields into an 11-byte
// ciphertext block (and unpack them back out).
package bitpack

// HashBuffer copies delta bits from in, starting at bit offset inBitOffset,
// into out starting at bit offset outBitOffset, OR-ing into the destination
// bytes. It returns outBitOffset + delta. Callers are expected to size out
// and in themselves; HashBuffer does no bounds checking beyond what the
// slice indexing below already performs.
func HashBuffer(out []byte, outBitOffset int, in []byte, inBitOffset int, delta int) int {
	size := ((inBitOffset+delta-1)>>3 - inBitOffset>>3) + 2

	buf := make([]byte, size)
	copy(buf[:size-1], in[inBitOffset>>3:inBitOffset>>3+size-1])

	if disp := (inBitOffset + delta) % 8; disp != 0 {
		buf[size-2] &= byte(0xFF << uint(8-disp))
	}

	modIn := inBitOffset % 8
	modOut := outBitOffset % 8

	shiftBytes(buf, size-1, -modIn)
	shiftBytes(buf, size, modOut)

	modSize := size - 1
	if modOut > modIn {
		modSize++
	}
	for i := 0; i < modSize; i++ {
		out[outBitOffset>>3+i] |= buf[i]
	}

	return outBitOffset + delta
}

// shiftBytes performs a multi-byte barrel shift over the first size bytes
// of out. A positive delta shifts right, pulling carried-in bits from the
// preceding byte; a negative delta shifts left, pulling carried-in bits
// from the following byte. Bytes past size are neither read nor written.
func shiftBytes(out []byte, size int, delta int) {
	switch {
	case delta == 0:
		return
	case delta > 0:
		if size > 1 {
			for i := size - 1; i >= 1; i-- {
				out[i] = out[i-1]<<uint(8-delta) | out[i]>>uint(delta)
			}
		}
		out[0] >>= uint(delta)
	default:
		delta = -delta
		if size > 1 {
			for i := 0; i < size-1; i++ {
				out[i] = out[i+1]>>uint(8-delta) | out[i]<<uint(delta)
			}
		}
		out[size-1] <<= uint(delta)
	}
}
