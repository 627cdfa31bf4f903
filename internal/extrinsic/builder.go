package extrinsic

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/crypto"
)

// Signer is the signing capability a transaction needs.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	Scheme() crypto.Scheme
}

// TxConfig holds everything needed to build one transaction.
type TxConfig[A CallArgs] struct {
	Call        GenericCall[A]
	Address     Address
	Nonce       uint32
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash types.Hash
	Mortality   Mortality
	Tip         Balance
	// Extension defaults to DefaultExtraProvider.
	Extension SignedExtensionProvider
}

// Tx builds signed payloads and signed extrinsics from a TxConfig. It holds
// no state beyond its configuration and may be reused.
type Tx[A CallArgs] struct {
	config TxConfig[A]
}

// NewTx returns a builder for config.
func NewTx[A CallArgs](config TxConfig[A]) *Tx[A] {
	if config.Extension == nil {
		config.Extension = DefaultExtraProvider
	}
	return &Tx[A]{config: config}
}

// Config returns the builder configuration.
func (t *Tx[A]) Config() TxConfig[A] {
	return t.config
}

// Extension builds the signed extension for this transaction.
func (t *Tx[A]) Extension() SignedExtension {
	return t.config.Extension(ExtraParams{
		SpecVersion: t.config.SpecVersion,
		TxVersion:   t.config.TxVersion,
		Nonce:       t.config.Nonce,
		GenesisHash: t.config.GenesisHash,
		Mortality:   t.config.Mortality,
		Tip:         t.config.Tip,
	})
}

// SignedPayload returns the payload to be signed.
func (t *Tx[A]) SignedPayload() SignedPayload {
	return NewSignedPayload(t.config.Call, t.Extension())
}

// SignedTxFromPair signs the payload with signer and returns the signed extrinsic.
func (t *Tx[A]) SignedTxFromPair(signer Signer) (UncheckedExtrinsic[A], error) {
	payload := t.SignedPayload()
	sig, err := payload.Sign(signer)
	if err != nil {
		return UncheckedExtrinsic[A]{}, err
	}
	return t.TxFromParts(sig, payload)
}

// TxFromParts assembles a signed extrinsic from a signature produced
// elsewhere over payload.
func (t *Tx[A]) TxFromParts(sig MultiSignature, payload SignedPayload) (UncheckedExtrinsic[A], error) {
	if _, err := sig.Scheme.SignatureSize(); err != nil {
		return UncheckedExtrinsic[A]{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return UncheckedExtrinsic[A]{
		Signature: &SignatureTriple{
			Address:   t.config.Address,
			Signature: sig,
			Extra:     payload.Extra,
		},
		Call: t.config.Call,
	}, nil
}

// Unsigned returns the call wrapped in an unsigned extrinsic.
func (t *Tx[A]) Unsigned() UncheckedExtrinsic[A] {
	return UncheckedExtrinsic[A]{Call: t.config.Call}
}
