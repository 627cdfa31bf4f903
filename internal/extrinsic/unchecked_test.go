package extrinsic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airgap/internal/codec"
	"airgap/internal/crypto"
)

func testTx(format AddressFormat) *Tx[*payArgs] {
	return NewTx(TxConfig[*payArgs]{
		Call: NewCall(CallIndex{Module: 5, Call: 0}, &payArgs{
			Dest:  NewAddress(format, testAccount(1)),
			Value: NewBalance(12),
		}),
		Address:     NewAddress(format, testAccount(100)),
		Nonce:       7,
		SpecVersion: 26,
		TxVersion:   4,
		GenesisHash: testGenesis(),
		Mortality:   Mortal(64, 42, testGenesis()),
		Tip:         NewBalance(0),
	})
}

func TestUnsignedEnvelope(t *testing.T) {
	ext := testTx(AddressAccountID).Unsigned()
	assert.False(t, ext.IsSigned())

	body, err := ext.Body()
	require.NoError(t, err)
	assert.Equal(t, byte(0x04), body[0])

	call, err := ext.Call.Bytes()
	require.NoError(t, err)
	assert.Equal(t, call, body[1:])

	encoded, err := ext.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(len(body)<<2), encoded[0])
	assert.Equal(t, body, encoded[1:])

	decoded, err := DecodeUncheckedExtrinsic(encoded, AddressAccountID, &payArgs{})
	require.NoError(t, err)
	assert.False(t, decoded.IsSigned())
	assert.Equal(t, ext.Call.Index, decoded.Call.Index)
}

func TestSignedEnvelopeRoundTrip(t *testing.T) {
	for _, format := range []AddressFormat{AddressAccountID, AddressMultiID} {
		tx := testTx(format)
		signer := newRecordingSigner(crypto.Sr25519)

		ext, err := tx.SignedTxFromPair(signer)
		require.NoError(t, err)
		require.True(t, ext.IsSigned())

		body, err := ext.Body()
		require.NoError(t, err)
		assert.Equal(t, byte(0x84), body[0])

		encoded, err := ext.Bytes()
		require.NoError(t, err)

		decoded, err := DecodeUncheckedExtrinsic(encoded, format, &payArgs{Dest: Address{Format: format}})
		require.NoError(t, err)
		require.NotNil(t, decoded.Signature)
		assert.Equal(t, ext.Signature.Address, decoded.Signature.Address)
		assert.Equal(t, ext.Signature.Signature, decoded.Signature.Signature)
		assert.Equal(t, ext.Signature.Extra.Era, decoded.Signature.Extra.Era)
		assert.Equal(t, uint32(7), decoded.Signature.Extra.Nonce)
		assert.Equal(t, testAccount(1), decoded.Call.Args.Dest.ID())

		reencoded, err := decoded.Bytes()
		require.NoError(t, err)
		assert.Equal(t, encoded, reencoded)

		hash, err := ext.Hash()
		require.NoError(t, err)
		assert.Equal(t, codec.Blake2_256(encoded), hash)

		hexed, err := ext.Hex()
		require.NoError(t, err)
		assert.Equal(t, codec.EncodeHex(encoded), hexed)
	}
}

func TestDecodeUncheckedExtrinsicErrors(t *testing.T) {
	ext, err := testTx(AddressAccountID).SignedTxFromPair(newRecordingSigner(crypto.Ed25519))
	require.NoError(t, err)
	body, err := ext.Body()
	require.NoError(t, err)

	frame := func(b []byte) []byte {
		out, err := codec.PrefixLength(b)
		require.NoError(t, err)
		return out
	}
	withVersion := func(v byte) []byte {
		b := append([]byte(nil), body...)
		b[0] = v
		return frame(b)
	}
	withTrailing := frame(append(append([]byte(nil), body...), 0x00))

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "version 3", input: withVersion(0x83), wantErr: ErrInvalidTransactionVersion},
		{name: "version 5 unsigned", input: withVersion(0x05), wantErr: ErrInvalidTransactionVersion},
		{name: "length prefix too long", input: frame(body)[:len(frame(body))-1], wantErr: codec.ErrDecodeTruncated},
		{name: "extra bytes after frame", input: append(frame(body), 0x00), wantErr: codec.ErrDecodeTrailingBytes},
		{name: "call has trailing bytes", input: withTrailing, wantErr: codec.ErrDecodeTrailingBytes},
		{name: "signature cut short", input: frame(body[:40]), wantErr: codec.ErrDecodeTruncated},
		{name: "empty", input: nil, wantErr: codec.ErrDecodeTruncated},
		{name: "length prefix past input", input: []byte{0xfc}, wantErr: codec.ErrDecodeTruncated},
		{name: "length prefix wider than u64", input: append([]byte{0x17}, bytes.Repeat([]byte{0xff}, 9)...), wantErr: codec.ErrDecodeTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUncheckedExtrinsic(tt.input, AddressAccountID, &payArgs{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMultiAddressRejectsOtherVariants(t *testing.T) {
	var addr = Address{Format: AddressMultiID}
	input := append([]byte{0x01}, make([]byte, 32)...)
	assert.ErrorIs(t, codec.DecodeExact(input, &addr), ErrUnsupportedAddress)

	_, err := codec.Encode(Address{Format: AddressFormat(9)})
	assert.ErrorIs(t, err, ErrUnsupportedAddress)
}
