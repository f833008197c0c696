package phash

import (
	"math/bits"
)

// squareMask has bit 63-r set for every quadratic residue r modulo 64.
const squareMask uint64 = 0xC840C04048404040

// IsSquare reports whether x is a perfect square.
//
// Most non-squares are rejected by their residue modulo 64 or by their
// trailing zeros before any square root is taken.
func IsSquare(x int64) bool {
	switch {
	case x < 0:
		return false
	case x == 0:
		return true
	case (squareMask<<(uint64(x)&63))>>63 == 0:
		return false
	}

	tz := bits.TrailingZeros64(uint64(x))
	if tz&1 != 0 {
		// squares have an even number of trailing zeros
		return false
	}

	x >>= uint(tz)

	// odd squares end with 001
	if x&7 != 1 {
		return false
	}

	r := int64(isqrt(int(x)))

	return r*r == x
}
