package extrinsic

import (
	"math/rand"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airgap/internal/codec"
)

func decodeEra(t *testing.T, b []byte) (Era, error) {
	t.Helper()
	var e Era
	err := codec.DecodeExact(b, &e)
	return e, err
}

func TestEraEncoding(t *testing.T) {
	tests := []struct {
		name    string
		era     Era
		encoded []byte
	}{
		{name: "immortal", era: ImmortalEra(), encoded: []byte{0x00}},
		{name: "period 64 at block 42", era: MortalEra(64, 42), encoded: []byte{165, 2}},
		{name: "period 32768 at block 20000", era: MortalEra(32768, 20000), encoded: []byte{78, 156}},
		{name: "smallest period", era: MortalEra(4, 3), encoded: []byte{0x31, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Encode(tt.era)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, got)

			decoded, err := decodeEra(t, got)
			require.NoError(t, err)
			assert.Equal(t, tt.era, decoded)
		})
	}
}

func TestMortalEraQuantization(t *testing.T) {
	tests := []struct {
		name   string
		period uint64
		block  uint64
		want   Era
	}{
		{name: "rounds up to power of two", period: 60, block: 42, want: Era{IsMortal: true, Period: 64, Phase: 42}},
		{name: "small periods clamp to 4", period: 1, block: 7, want: Era{IsMortal: true, Period: 4, Phase: 3}},
		{name: "large periods clamp to 65536", period: 1_000_000_000, block: 1_000_000_000, want: Era{IsMortal: true, Period: 65536, Phase: 51712}},
		{name: "zero defaults to 65536", period: 0, block: 17, want: Era{IsMortal: true, Period: 65536, Phase: 16}},
		{name: "overflow defaults to 65536", period: 1<<63 + 1, block: 5, want: Era{IsMortal: true, Period: 65536, Phase: 0}},
		{name: "phase quantized by period/4096", period: 32768, block: 20003, want: Era{IsMortal: true, Period: 32768, Phase: 20000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MortalEra(tt.period, tt.block))
		})
	}
}

func TestMortalEraRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	periods := []uint64{1, 2, 3, 4, 5, 63, 64, 65, 4095, 4096, 4097, 65535, 65536, 65537, 1_000_000_000}
	for i := 0; i < 500; i++ {
		periods = append(periods, 1+uint64(rng.Int63n(1_000_000_000)))
	}

	for _, period := range periods {
		for _, block := range []uint64{0, 1, period, 1_000_000_000, uint64(rng.Int63n(1_000_000_001))} {
			era := MortalEra(period, block)
			require.GreaterOrEqual(t, era.Period, uint64(4))
			require.LessOrEqual(t, era.Period, uint64(65536))
			require.Less(t, era.Phase, era.Period)

			encoded, err := codec.Encode(era)
			require.NoError(t, err)
			require.Len(t, encoded, 2)

			decoded, err := decodeEra(t, encoded)
			require.NoError(t, err)
			require.Equal(t, era, decoded, "period %d block %d", period, block)
		}
	}
}

func TestEraDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "period below 4", input: []byte{0x10, 0x00}, wantErr: ErrInvalidEra},
		{name: "phase not below period", input: []byte{0x41, 0x00}, wantErr: ErrInvalidEra},
		{name: "missing second byte", input: []byte{0x05}, wantErr: codec.ErrDecodeTruncated},
		{name: "empty", input: nil, wantErr: codec.ErrDecodeTruncated},
		{name: "immortal with trailing byte", input: []byte{0x00, 0x00}, wantErr: codec.ErrDecodeTrailingBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEra(t, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEraEncodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		era  Era
	}{
		{name: "period not a power of two", era: Era{IsMortal: true, Period: 48, Phase: 3}},
		{name: "zero period", era: Era{IsMortal: true}},
		{name: "period above 65536", era: Era{IsMortal: true, Period: 1 << 17}},
		{name: "phase not below period", era: Era{IsMortal: true, Period: 64, Phase: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.era.Validate(), ErrInvalidEra)
			_, err := codec.Encode(tt.era)
			assert.ErrorIs(t, err, ErrInvalidEra)
		})
	}
}

func TestEraBirthAndDeath(t *testing.T) {
	era := MortalEra(64, 42)
	assert.Equal(t, uint64(42), era.Birth(100))
	assert.Equal(t, uint64(106), era.Death(100))
	assert.Equal(t, uint64(42), era.Birth(10))
	assert.Equal(t, uint64(106), era.Birth(110))

	immortal := ImmortalEra()
	assert.True(t, immortal.IsImmortal())
	assert.Equal(t, uint64(0), immortal.Birth(1234))
	assert.Equal(t, ^uint64(0), immortal.Death(1234))
}

func TestEraMatchesRPCClientEncoding(t *testing.T) {
	for _, era := range []Era{ImmortalEra(), MortalEra(64, 42), MortalEra(32768, 20000)} {
		converted, err := era.ExtrinsicEra()
		require.NoError(t, err)

		ours, err := codec.Encode(era)
		require.NoError(t, err)
		theirs, err := codec.Encode(converted)
		require.NoError(t, err)
		assert.Equal(t, ours, theirs, era.String())
	}
}

func TestMortality(t *testing.T) {
	era, checkpoint := Immortal().Era()
	assert.True(t, era.IsImmortal())
	assert.Nil(t, checkpoint)

	hash := types.NewHash([]byte{1, 2, 3})
	m := Mortal(64, 42, hash)
	assert.False(t, m.IsImmortal())
	era, checkpoint = m.Era()
	assert.Equal(t, MortalEra(64, 42), era)
	require.NotNil(t, checkpoint)
	assert.Equal(t, hash, *checkpoint)
}
