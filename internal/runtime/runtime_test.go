package runtime

import (
	"encoding/hex"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airgap/internal/codec"
	"airgap/internal/crypto"
	"airgap/internal/extrinsic"
	"airgap/internal/metadata"
)

var genesis = types.Hash{
	221, 185, 147, 77, 30, 241, 157, 155, 28, 177, 225, 8, 87, 182, 228, 162,
	79, 230, 196, 149, 215, 168, 99, 34, 136, 35, 92, 20, 18, 83, 139, 132,
}

func accountFromHex(t *testing.T, s string) types.AccountID {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	id, err := types.NewAccountID(b)
	require.NoError(t, err)
	return *id
}

func bob(t *testing.T) types.AccountID {
	return accountFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
}

func alice(t *testing.T) types.AccountID {
	return accountFromHex(t, "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
}

func kusamaMetadata(t *testing.T) *metadata.Metadata {
	t.Helper()
	meta, err := metadata.New([]metadata.Module{
		{Name: "System", Index: 0, Calls: []string{"fill_block", "remark"}},
		{Name: "Balances", Index: 5, Calls: []string{"transfer", "set_balance", "force_transfer", "transfer_keep_alive"}},
	})
	require.NoError(t, err)
	return meta
}

func transferTx(t *testing.T) *extrinsic.Tx[*Transfer] {
	t.Helper()
	args := Kusama.NewTransfer(bob(t), extrinsic.NewBalance(12))
	idx, err := kusamaMetadata(t).CallIndexFor(args)
	require.NoError(t, err)

	return extrinsic.NewTx(TxConfig(Kusama, extrinsic.TxConfig[*Transfer]{
		Call:        extrinsic.NewCall(idx, args),
		Address:     extrinsic.Address{AccountID: alice(t)},
		Nonce:       0,
		SpecVersion: 26,
		TxVersion:   4,
		GenesisHash: genesis,
		Mortality:   extrinsic.Immortal(),
		Tip:         extrinsic.NewBalance(0),
	}))
}

func TestTransferCallGolden(t *testing.T) {
	tx := transferTx(t)
	encoded, err := tx.Config().Call.Bytes()
	require.NoError(t, err)

	b := bob(t)
	want := append([]byte{5, 0}, b[:]...)
	want = append(want, 48)
	assert.Equal(t, want, encoded)

	decoded, err := extrinsic.DecodeCall(encoded, Kusama.EmptyTransfer())
	require.NoError(t, err)
	assert.Equal(t, extrinsic.CallIndex{Module: 5, Call: 0}, decoded.Index)
	assert.Equal(t, b, decoded.Args.Dest.ID())
	assert.Equal(t, "12", decoded.Args.Value.String())
}

func TestSignedPayloadGolden(t *testing.T) {
	payload, err := transferTx(t).SignedPayload().Bytes()
	require.NoError(t, err)

	b := bob(t)
	want := append([]byte{5, 0}, b[:]...)
	want = append(want, 48)
	want = append(want, 0, 0, 0)
	want = append(want, 26, 0, 0, 0)
	want = append(want, 4, 0, 0, 0)
	want = append(want, genesis[:]...)
	want = append(want, genesis[:]...)

	require.Len(t, payload, 110)
	assert.Equal(t, want, payload)
}

func TestSignedTxGolden(t *testing.T) {
	signer, err := crypto.NewSigner(crypto.Sr25519, "//Alice")
	require.NoError(t, err)
	require.Equal(t, alice(t), signer.AccountID())

	tx := transferTx(t)
	ext, err := tx.SignedTxFromPair(signer)
	require.NoError(t, err)

	encoded, err := ext.Bytes()
	require.NoError(t, err)
	require.Len(t, encoded, 138)

	a := alice(t)
	assert.Equal(t, append(append([]byte{33, 2, 132}, a[:]...), 1), encoded[:36])
	assert.Equal(t, []byte{0, 0, 0}, encoded[100:103])

	call, err := tx.Config().Call.Bytes()
	require.NoError(t, err)
	assert.Equal(t, call, encoded[103:])

	payload, err := tx.SignedPayload().SigningBytes()
	require.NoError(t, err)
	assert.True(t, crypto.Verify(crypto.Sr25519, payload, encoded[36:100], a[:]))

	decoded, err := extrinsic.DecodeUncheckedExtrinsic(encoded, Kusama.AddressFormat, Kusama.EmptyTransfer())
	require.NoError(t, err)
	require.True(t, decoded.IsSigned())
	assert.Equal(t, a, decoded.Signature.Address.ID())
	assert.Equal(t, bob(t), decoded.Call.Args.Dest.ID())
}

func TestRemarkHashingThreshold(t *testing.T) {
	meta := kusamaMetadata(t)

	// A remark of n bytes encodes as 2 index bytes, a compact length and the
	// data. With an immortal extra the payload is 77 bytes plus that.
	tests := []struct {
		name       string
		size       int
		wantHashed bool
	}{
		{name: "payload of 256 bytes", size: 177, wantHashed: false},
		{name: "payload of 257 bytes", size: 178, wantHashed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remark := &Remark{Data: make([]byte, tt.size)}
			idx, err := meta.CallIndexFor(remark)
			require.NoError(t, err)
			assert.Equal(t, extrinsic.CallIndex{Module: 0, Call: 1}, idx)

			tx := extrinsic.NewTx(TxConfig(Kusama, extrinsic.TxConfig[*Remark]{
				Call:        extrinsic.NewCall(idx, remark),
				Address:     extrinsic.Address{AccountID: alice(t)},
				SpecVersion: 26,
				TxVersion:   4,
				GenesisHash: genesis,
				Mortality:   extrinsic.Immortal(),
				Tip:         extrinsic.NewBalance(0),
			}))

			raw, err := tx.SignedPayload().Bytes()
			require.NoError(t, err)
			msg, err := tx.SignedPayload().SigningBytes()
			require.NoError(t, err)

			if tt.wantHashed {
				require.Len(t, raw, 257)
				h := codec.Blake2_256(raw)
				assert.Equal(t, h[:], msg)
			} else {
				require.Len(t, raw, 256)
				assert.Equal(t, raw, msg)
			}
		})
	}
}

func TestTransferKeepAlive(t *testing.T) {
	args := Westend.NewTransferKeepAlive(bob(t), extrinsic.NewBalance(1))
	assert.Equal(t, "Balances", args.Pallet())
	assert.Equal(t, "transfer_keep_alive", args.Call())

	idx, err := kusamaMetadata(t).CallIndexFor(args)
	require.NoError(t, err)
	call := extrinsic.NewCall(idx, args)
	encoded, err := call.Bytes()
	require.NoError(t, err)

	// MultiAddress::Id carries a zero tag before the account id.
	require.Len(t, encoded, 2+1+32+1)
	assert.Equal(t, []byte{5, 3, 0}, encoded[:3])

	decoded, err := extrinsic.DecodeCall(encoded, &TransferKeepAlive{Transfer: *Westend.EmptyTransfer()})
	require.NoError(t, err)
	assert.Equal(t, bob(t), decoded.Args.Dest.ID())
}

func TestRemarkRoundTrip(t *testing.T) {
	encoded, err := codec.Encode(Remark{Data: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, append([]byte{20}, "hello"...), encoded)

	var decoded Remark
	require.NoError(t, codec.DecodeExact(encoded, &decoded))
	assert.Equal(t, []byte("hello"), decoded.Data)

	assert.ErrorIs(t, codec.DecodeExact([]byte{20, 'h'}, &decoded), codec.ErrDecodeTruncated)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"kusama", "Polkadot", "WESTEND"} {
		r, err := Lookup(name)
		require.NoError(t, err)
		assert.NotEmpty(t, r.TokenSymbol)
		assert.NotNil(t, r.Extension)
	}
	_, err := Lookup("rococo")
	assert.ErrorIs(t, err, ErrUnknownRuntime)

	cfg := TxConfig(Westend, extrinsic.TxConfig[*Remark]{})
	assert.Equal(t, extrinsic.AddressMultiID, cfg.Address.Format)
	assert.NotNil(t, cfg.Extension)
}
