// Package phash reduces a square grey-scale image to a perceptual hash: a
// bitkey.Key whose bits tell which low-frequency DCT coefficients of the image
// lie above their mean. Similar images get hashes within a small Hamming
// distance of each other.
package phash

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
)

var (
	// ErrInvalidHashLength is returned for hash lengths that are not perfect
	// squares of at least 4.
	ErrInvalidHashLength = errors.New("phash: invalid hash length")

	// ErrInvalidImage is returned for sample counts that are not a perfect
	// square, a power of two and larger than the hash length.
	ErrInvalidImage = errors.New("phash: invalid image length")
)

// Hasher hashes images of a fixed size. It precomputes the cosine tables so
// it is cheap to reuse across many images. A Hasher is safe for concurrent use.
type Hasher struct {
	bits      int
	hashWidth int
	width     int
	size      int       // side of the coefficient corner we need
	cos       []float64 // cos[k*width+n] for k < size
}

// NewHasher returns a Hasher producing keys of the given number of bits from
// images of the given number of samples.
func NewHasher(bits, samples int) (*Hasher, error) {
	if err := ValidateHashLength(bits); err != nil {
		return nil, err
	}

	if err := ValidateImageLength(samples, bits); err != nil {
		return nil, err
	}

	var (
		hashWidth = isqrt(bits)
		width     = isqrt(samples)
		size      = hashWidth + 1
		table     = make([]float64, size*width)
	)

	for k := 0; k < size; k++ {
		for n := 0; n < width; n++ {
			table[k*width+n] = math.Cos(math.Pi / float64(width) * (float64(n) + 0.5) * float64(k))
		}
	}

	return &Hasher{
		bits:      bits,
		hashWidth: hashWidth,
		width:     width,
		size:      size,
		cos:       table,
	}, nil
}

// Hash is a shortcut for NewHasher(bits, len(samples)) followed by Hash.
func Hash(samples []float64, bits int) (bitkey.Key, error) {
	h, err := NewHasher(bits, len(samples))
	if err != nil {
		return bitkey.Key{}, err
	}

	return h.Hash(samples)
}

// Bits returns the length of the produced keys.
func (h *Hasher) Bits() int {
	return h.bits
}

// Samples returns the number of samples expected by Hash.
func (h *Hasher) Samples() int {
	return h.width * h.width
}

// Hash computes the perceptual hash of a row-major width*width sample grid.
// The samples are left untouched.
func (h *Hasher) Hash(samples []float64) (bitkey.Key, error) {
	if n := len(samples); n != h.width*h.width {
		return bitkey.Key{}, errors.Wrapf(ErrInvalidImage, "%d samples, expected %d", n, h.width*h.width)
	}

	var (
		coef   = h.transform(samples)
		window = make([]float64, h.bits)
		mean   float64
	)

	// low horizontal, vertical and diagonal frequencies, skipping DC
	for i := 0; i < h.bits-1; i++ {
		row, col := (i+1)/h.hashWidth, (i+1)%h.hashWidth
		window[i] = coef[row*h.size+col]
	}
	// and one more diagonal frequency
	window[h.bits-1] = coef[h.hashWidth*h.size+h.hashWidth]

	for _, c := range window {
		mean += c
	}
	mean /= float64(h.bits)

	return bitkey.FromBits(h.bits, func(i int) bool {
		return window[i] > mean
	}), nil
}

// transform returns the size*size low-frequency corner of the unnormalized
// 2-D DCT-II of the samples, row-major.
func (h *Hasher) transform(samples []float64) []float64 {
	var (
		width = h.width
		size  = h.size
		rows  = make([]float64, width*size) // rows[y*size+u]
		coef  = make([]float64, size*size)  // coef[v*size+u]
	)

	for y := 0; y < width; y++ {
		line := samples[y*width : (y+1)*width]

		for u := 0; u < size; u++ {
			var (
				sum float64
				cos = h.cos[u*width : (u+1)*width]
			)

			for x, s := range line {
				sum += s * cos[x]
			}

			rows[y*size+u] = sum
		}
	}

	for v := 0; v < size; v++ {
		cos := h.cos[v*width : (v+1)*width]

		for u := 0; u < size; u++ {
			var sum float64

			for y := 0; y < width; y++ {
				sum += rows[y*size+u] * cos[y]
			}

			coef[v*size+u] = sum
		}
	}

	return coef
}

// ValidateHashLength checks that bits is a perfect square of at least 4.
func ValidateHashLength(bits int) error {
	if bits < 4 || !IsSquare(int64(bits)) {
		return errors.Wrapf(ErrInvalidHashLength, "%d bits", bits)
	}

	return nil
}

// ValidateImageLength checks that an image of n samples can be hashed to the
// given number of bits.
func ValidateImageLength(n, bits int) error {
	if n <= bits || n&(n-1) != 0 || !IsSquare(int64(n)) {
		return errors.Wrapf(ErrInvalidImage, "%d samples for a %d-bit hash", n, bits)
	}

	return nil
}

func isqrt(x int) int {
	var (
		n = uint64(x)
		r = uint64(math.Sqrt(float64(n)))
	)

	// float64 loses precision above 2^53
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}

	return int(r)
}
