// Package bitkey defines an immutable fixed-length bit vector used as a key
// by the capillary index.
//
// Bit i of a Key lives in word i/64 at position i%64. Bit Len()-1 is the most
// significant one: it is printed first and consumed first by the index.
package bitkey

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/hideo55/go-popcount"
	"github.com/pkg/errors"
)

const (
	wordWidth = 64
	wordShift = 6
	wordMask  = wordWidth - 1
)

// ErrSyntax is returned by Parse for characters other than '0', '1' and '_'.
var ErrSyntax = errors.New("bitkey: invalid syntax")

// Key is an immutable bit vector. The zero value is an empty key.
type Key struct {
	words []uint64
	size  int
}

// New returns a key of n bits with the given bits set.
// It panics if a bit is outside [0, n).
func New(n int, set ...int) Key {
	key := Key{
		words: make([]uint64, wordsFor(n)),
		size:  n,
	}

	for _, i := range set {
		if i < 0 || i >= n {
			panic(fmt.Sprintf("bitkey: bit %d out of range [0, %d)", i, n))
		}

		key.words[i>>wordShift] |= 1 << (uint(i) & wordMask)
	}

	return key
}

// FromUint64 returns a key of n bits (n <= 64) holding the low n bits of v.
func FromUint64(v uint64, n int) Key {
	if n < wordWidth {
		v &= 1<<uint(n) - 1
	}

	return Key{
		words: []uint64{v},
		size:  n,
	}
}

// FromBits returns a key of n bits where bit i is set when isSet(i) is true.
func FromBits(n int, isSet func(i int) bool) Key {
	key := New(n)

	for i := 0; i < n; i++ {
		if isSet(i) {
			key.words[i>>wordShift] |= 1 << (uint(i) & wordMask)
		}
	}

	return key
}

// Parse reads a key written most significant bit first, e.g. "0000_1000".
func Parse(s string) (Key, error) {
	s = strings.Replace(s, "_", "", -1)

	var (
		n   = len(s)
		key = New(n)
	)

	for pos := 0; pos < n; pos++ {
		switch s[pos] {
		case '0':
		case '1':
			i := n - 1 - pos
			key.words[i>>wordShift] |= 1 << (uint(i) & wordMask)
		default:
			return Key{}, errors.Wrapf(ErrSyntax, "%q at offset %d", s[pos], pos)
		}
	}

	return key, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Key {
	key, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return key
}

// Len returns the number of bits in the key.
func (k Key) Len() int {
	return k.size
}

// Bit reports whether bit i is set.
func (k Key) Bit(i int) bool {
	return k.words[i>>wordShift]>>(uint(i)&wordMask)&1 != 0
}

// Dir returns bit i as a 0/1 child index.
func (k Key) Dir(i int) int {
	return int(k.words[i>>wordShift] >> (uint(i) & wordMask) & 1)
}

// Slice returns an independent copy of bits [lo, hi) shifted down to bit 0.
func (k Key) Slice(lo, hi int) Key {
	n := hi - lo
	if n <= 0 {
		return Key{}
	}

	var (
		out   = New(n)
		word  = lo >> wordShift
		shift = uint(lo) & wordMask
	)

	for i := range out.words {
		w := k.words[word+i] >> shift
		if shift != 0 && word+i+1 < len(k.words) {
			w |= k.words[word+i+1] << (wordWidth - shift)
		}
		out.words[i] = w
	}

	out.trim()

	return out
}

// Xor returns the bitwise difference of two keys of equal length.
func (k Key) Xor(o Key) Key {
	out := New(k.size)

	for i := range out.words {
		out.words[i] = k.words[i] ^ o.words[i]
	}

	return out
}

// OnesCount returns the number of set bits.
func (k Key) OnesCount() int {
	var cnt uint64

	for _, w := range k.words {
		cnt += popcount.Count(w)
	}

	return int(cnt)
}

// Distance returns the Hamming distance between two keys of equal length.
func (k Key) Distance(o Key) int {
	var cnt uint64

	for i, w := range k.words {
		cnt += popcount.Count(w ^ o.words[i])
	}

	return int(cnt)
}

// BitLen returns the index of the highest set bit plus one, or 0 for a key
// with no bits set.
func (k Key) BitLen() int {
	for i := len(k.words) - 1; i >= 0; i-- {
		if w := k.words[i]; w != 0 {
			return i<<wordShift + bits.Len64(w)
		}
	}

	return 0
}

// IsZero reports whether no bit is set.
func (k Key) IsZero() bool {
	for _, w := range k.words {
		if w != 0 {
			return false
		}
	}

	return true
}

// Equal reports whether both keys have the same length and bits.
func (k Key) Equal(o Key) bool {
	if k.size != o.size {
		return false
	}

	for i, w := range k.words {
		if w != o.words[i] {
			return false
		}
	}

	return true
}

// Uint64 returns the lowest 64 bits of the key.
func (k Key) Uint64() uint64 {
	if len(k.words) == 0 {
		return 0
	}

	return k.words[0]
}

func (k Key) String() string {
	var b strings.Builder

	b.Grow(k.size)

	for i := k.size - 1; i >= 0; i-- {
		if k.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}

	return b.String()
}

// trim clears the unused bits above size in the last word.
func (k *Key) trim() {
	if rem := uint(k.size) & wordMask; rem != 0 {
		k.words[len(k.words)-1] &= 1<<rem - 1
	}
}

func wordsFor(n int) int {
	return (n + wordMask) >> wordShift
}
