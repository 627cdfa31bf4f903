package codec

import (
	"bytes"
	"encoding/hex"
	"math"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		prefix []byte
	}{
		{name: "empty", length: 0, prefix: []byte{0x00}},
		{name: "single byte mode max", length: 63, prefix: []byte{0xfc}},
		{name: "two byte mode min", length: 64, prefix: []byte{0x01, 0x01}},
		{name: "signed transfer body", length: 136, prefix: []byte{0x21, 0x02}},
		{name: "four byte mode min", length: 16384, prefix: []byte{0x02, 0x00, 0x01, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := make([]byte, tt.length)
			for i := range body {
				body[i] = byte(i)
			}
			got, err := PrefixLength(body)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, got[:len(tt.prefix)])
			assert.Equal(t, body, got[len(tt.prefix):])

			n, err := ReadCompactUint64(*scale.NewDecoder(bytes.NewReader(got)), math.MaxUint32)
			require.NoError(t, err)
			assert.Equal(t, uint64(tt.length), n)
		})
	}
}

func TestDecodeExact(t *testing.T) {
	var v types.UCompact
	require.NoError(t, DecodeExact([]byte{0x04}, &v))
	assert.Equal(t, int64(1), v.Int64())

	err := DecodeExact([]byte{0x04, 0x09}, &v)
	assert.ErrorIs(t, err, ErrDecodeTrailingBytes)
}

func TestCompactHelpers(t *testing.T) {
	for _, v := range []uint64{0, 1, 63, 64, 16383, 16384, 1<<30 - 1, 1 << 30, 1<<64 - 1} {
		var buf bytes.Buffer
		require.NoError(t, WriteCompact(*scale.NewEncoder(&buf), v))

		got, err := ReadCompactUint64(*scale.NewDecoder(bytes.NewReader(buf.Bytes())), math.MaxUint64)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCompact(*scale.NewEncoder(&buf), 1<<32))
	_, err := ReadCompactUint64(*scale.NewDecoder(bytes.NewReader(buf.Bytes())), math.MaxUint32)
	assert.Error(t, err)

	_, err = ReadCompact(*scale.NewDecoder(bytes.NewReader([]byte{0x01})))
	assert.ErrorIs(t, err, ErrDecodeTruncated)
}

func TestFixedReads(t *testing.T) {
	dec := *scale.NewDecoder(bytes.NewReader([]byte{7, 1, 2}))

	b, err := ReadByte(dec)
	require.NoError(t, err)
	assert.Equal(t, byte(7), b)

	buf := make([]byte, 3)
	assert.ErrorIs(t, ReadFull(dec, buf), ErrDecodeTruncated)
	assert.NoError(t, ReadFull(dec, nil))

	_, err = ReadByte(*scale.NewDecoder(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, ErrDecodeTruncated)
}

func TestBlake2_256(t *testing.T) {
	sum := Blake2_256(nil)
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", hex.EncodeToString(sum[:]))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "0x0aff", EncodeHex([]byte{0x0a, 0xff}))

	for _, in := range []string{"0x0aff", "0aff", " 0X0AFF\n"} {
		b, err := DecodeHex(in)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x0a, 0xff}, b)
	}

	_, err := DecodeHex("0xabc")
	assert.Error(t, err)
}
