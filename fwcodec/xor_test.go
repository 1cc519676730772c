package fwcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		bytesRange(0, 52),
		bytesRange(0, 130), // spans more than one key cycle
	}
	for _, b := range cases {
		encoded := Encode(b)
		require.Equal(t, b, Decode(encoded))
		require.Equal(t, b, Encode(Decode(b)))
	}
}

func TestAllZeroBlockIsIdentityOfKey(t *testing.T) {
	zero := make([]byte, KeySize)
	encoded := Encode(zero)
	key := KeyBytes()
	require.Equal(t, key[:], encoded)

	decoded := Decode(zero)
	require.Equal(t, key[:], decoded)
}

func bytesRange(start, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(start + i)
	}
	return b
}
