package vocab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_Bijection(t *testing.T) {
	seen := make(map[rune]bool)
	for code := int32(0); code < Size; code++ {
		r, err := Decode(code)
		require.NoError(t, err)
		assert.False(t, seen[r], "rune %q decoded twice", r)
		seen[r] = true

		back, err := Encode(r)
		require.NoError(t, err)
		assert.Equal(t, code, back)
	}
	assert.Len(t, seen, Size)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		r    rune
		want int32
	}{
		{'.', 0},
		{'a', 1},
		{'b', 2},
		{'z', 26},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got, err := Encode(tt.r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []rune{'A', '1', ' ', 'é', '-'} {
		_, err := Encode(bad)
		assert.ErrorIs(t, err, ErrUnknownSymbol, "rune %q", bad)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, code := range []int32{-1, Size, 100} {
		_, err := Decode(code)
		assert.ErrorIs(t, err, ErrInvalidCode)
		assert.False(t, Valid(code))
	}
}

func TestEncodeWord(t *testing.T) {
	codes, err := EncodeWord("emma")
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 13, 13, 1}, codes)

	_, err = EncodeWord("em.ma")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = EncodeWord("Emma")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = EncodeWord("zoë")
	var symErr *SymbolError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, 'ë', symErr.Rune)
	assert.Equal(t, 2, symErr.Pos)

	empty, err := EncodeWord("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeCodes(t *testing.T) {
	s, err := DecodeCodes([]int32{0, 1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, ".ab.", s)

	_, err = DecodeCodes([]int32{1, 27})
	assert.ErrorIs(t, err, ErrInvalidCode)
}
