package extrinsic

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/crypto"
)

// payArgs is a transfer shaped argument: an address and a compact amount.
type payArgs struct {
	Dest  Address
	Value Balance
}

func (p payArgs) Encode(encoder scale.Encoder) error {
	if err := p.Dest.Encode(encoder); err != nil {
		return err
	}
	return p.Value.Encode(encoder)
}

func (p *payArgs) Decode(decoder scale.Decoder) error {
	if err := p.Dest.Decode(decoder); err != nil {
		return err
	}
	return p.Value.Decode(decoder)
}

func testAccount(seed byte) types.AccountID {
	var id types.AccountID
	for i := range id {
		id[i] = seed + byte(i)
	}
	return id
}

func testGenesis() types.Hash {
	var h types.Hash
	for i := range h {
		h[i] = 0xf0 ^ byte(i)
	}
	return h
}

// recordingSigner returns a fixed signature and remembers what it signed.
type recordingSigner struct {
	scheme  crypto.Scheme
	sig     []byte
	err     error
	message []byte
}

func newRecordingSigner(scheme crypto.Scheme) *recordingSigner {
	size, err := scheme.SignatureSize()
	if err != nil {
		panic(fmt.Sprintf("bad scheme: %v", err))
	}
	sig := make([]byte, size)
	for i := range sig {
		sig[i] = byte(i)
	}
	return &recordingSigner{scheme: scheme, sig: sig}
}

func (r *recordingSigner) Sign(message []byte) ([]byte, error) {
	r.message = append([]byte(nil), message...)
	if r.err != nil {
		return nil, r.err
	}
	return r.sig, nil
}

func (r *recordingSigner) Scheme() crypto.Scheme {
	return r.scheme
}

var errDeviceUnplugged = errors.New("device unplugged")
