package bitkey

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		In     string
		ExpLen int
		ExpStr string
		ExpErr bool
	}{
		{"", 0, "", false},
		{"0", 1, "0", false},
		{"1", 1, "1", false},
		{"0000_1000", 8, "00001000", false},
		{"0102", 0, "", true},
		{"abc", 0, "", true},
	} {
		tcase := tcase

		t.Run(fmt.Sprintf("%#v", tcase.In), func(t *testing.T) {
			key, err := Parse(tcase.In)

			if tcase.ExpErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSyntax))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tcase.ExpLen, key.Len())
			assert.Equal(t, tcase.ExpStr, key.String())
		})
	}

	assert.Panics(t, func() { MustParse("2") })

	wide := "1" + repeat('0', 63) + "_1"
	key := MustParse(wide)
	assert.Equal(t, 65, key.Len())
	assert.Equal(t, "1"+repeat('0', 63)+"1", key.String())
	assert.Equal(t, 2, key.OnesCount())
}

func TestBit(t *testing.T) {
	t.Parallel()

	key := MustParse("1000_0101")

	for i, exp := range []bool{true, false, true, false, false, false, false, true} {
		assert.Equal(t, exp, key.Bit(i), "bit %d", i)
	}

	assert.Equal(t, 1, key.Dir(0))
	assert.Equal(t, 0, key.Dir(1))
	assert.Equal(t, 1, key.Dir(7))
}

func TestNewAndFromUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00100101", New(8, 0, 2, 5).String())
	assert.Equal(t, "1"+repeat('0', 69)+"1", New(71, 0, 70).String())

	assert.Panics(t, func() { New(4, 4) })
	assert.Panics(t, func() { New(64, -1) })
	assert.Panics(t, func() { New(0, 0) })
	assert.True(t, New(4, 3).Equal(MustParse("1000")))

	// bits above n are dropped
	key := FromUint64(0xFF, 4)
	assert.Equal(t, "1111", key.String())
	assert.Equal(t, uint64(0xF), key.Uint64())

	assert.Equal(t, uint64(0xDEADBEEF), FromUint64(0xDEADBEEF, 64).Uint64())
	assert.Equal(t, uint64(0), Key{}.Uint64())

	assert.True(t, FromBits(10, func(i int) bool { return i%2 == 0 }).Equal(MustParse("0101010101")))
}

func TestSlice(t *testing.T) {
	t.Parallel()

	key := MustParse("1100_1010")

	for _, tcase := range []*struct {
		Lo, Hi int
		Exp    string
	}{
		{0, 8, "11001010"},
		{0, 1, "0"},
		{1, 4, "101"},
		{4, 8, "1100"},
		{7, 8, "1"},
		{3, 3, ""},
	} {
		tcase := tcase

		t.Run(fmt.Sprintf("%d:%d", tcase.Lo, tcase.Hi), func(t *testing.T) {
			part := key.Slice(tcase.Lo, tcase.Hi)

			assert.Equal(t, tcase.Exp, part.String())
			assert.Equal(t, tcase.Hi-tcase.Lo, part.Len())
		})
	}
}

func TestSlice_CrossWord(t *testing.T) {
	t.Parallel()

	const (
		seed   = 1234567890
		height = 200
	)

	var (
		fake = gofakeit.New(seed)
		key  = FromBits(height, func(int) bool { return fake.Bool() })
		str  = key.String()
	)

	for i := 0; i < 500; i++ {
		var (
			lo = fake.Number(0, height-1)
			hi = fake.Number(lo+1, height)
		)

		part := key.Slice(lo, hi)

		// String() is MSB first: bit i sits at str[height-1-i]
		require.Equal(t, str[height-hi:height-lo], part.String(), "slice %d:%d", lo, hi)
		require.Equal(t, part.OnesCount(), countOnes(part.String()))
	}
}

func TestSlice_Independent(t *testing.T) {
	t.Parallel()

	key := MustParse("1111")
	part := key.Slice(0, 4)
	part.words[0] = 0

	assert.Equal(t, "1111", key.String())
}

func TestXorDistance(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		A, B    string
		ExpXor  string
		ExpDist int
		ExpLen  int
	}{
		{"0000", "0000", "0000", 0, 0},
		{"0000", "0001", "0001", 1, 1},
		{"1000", "0001", "1001", 2, 4},
		{"1111_0000", "0000_1111", "11111111", 8, 8},
		{"0010_0000", "0000_0000", "00100000", 1, 6},
	} {
		tcase := tcase

		t.Run(tcase.A+"^"+tcase.B, func(t *testing.T) {
			var (
				a = MustParse(tcase.A)
				b = MustParse(tcase.B)
				x = a.Xor(b)
			)

			assert.Equal(t, tcase.ExpXor, x.String())
			assert.Equal(t, tcase.ExpDist, a.Distance(b))
			assert.Equal(t, tcase.ExpDist, x.OnesCount())
			assert.Equal(t, tcase.ExpLen, x.BitLen())
			assert.Equal(t, tcase.ExpDist == 0, x.IsZero())
		})
	}
}

func TestBitLen_Wide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, New(130).BitLen())
	assert.Equal(t, 1, New(130, 0).BitLen())
	assert.Equal(t, 65, New(130, 3, 64).BitLen())
	assert.Equal(t, 130, New(130, 129).BitLen())
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, MustParse("0101").Equal(New(4, 0, 2)))
	assert.False(t, MustParse("0101").Equal(MustParse("00101")))
	assert.False(t, MustParse("0101").Equal(MustParse("0100")))
	assert.True(t, Key{}.Equal(New(0)))
}

func repeat(ch byte, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ch
	}

	return string(buf)
}

func countOnes(s string) (n int) {
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			n++
		}
	}

	return
}
