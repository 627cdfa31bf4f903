package extrinsic

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/codec"
)

// Extra is the transmitted part of the signed extensions: the era, the
// account nonce and the tip.
type Extra struct {
	Era   Era
	Nonce uint32
	Tip   Balance
}

func (e Extra) Encode(encoder scale.Encoder) error {
	if err := e.Era.Encode(encoder); err != nil {
		return fmt.Errorf("encoding era: %w", err)
	}
	if err := codec.WriteCompact(encoder, uint64(e.Nonce)); err != nil {
		return fmt.Errorf("encoding nonce: %w", err)
	}
	if err := e.Tip.Encode(encoder); err != nil {
		return fmt.Errorf("encoding tip: %w", err)
	}
	return nil
}

func (e *Extra) Decode(decoder scale.Decoder) error {
	if err := e.Era.Decode(decoder); err != nil {
		return err
	}
	nonce, err := codec.ReadCompactUint64(decoder, math.MaxUint32)
	if err != nil {
		return fmt.Errorf("decoding nonce: %w", err)
	}
	e.Nonce = uint32(nonce)
	if err := e.Tip.Decode(decoder); err != nil {
		return fmt.Errorf("decoding tip: %w", err)
	}
	return nil
}

// AdditionalSigned is covered by the signature but never transmitted.
type AdditionalSigned struct {
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash types.Hash
	// CheckpointHash is the era's anchor block, or the genesis hash when immortal.
	CheckpointHash types.Hash
}

func (a AdditionalSigned) Encode(encoder scale.Encoder) error {
	var buf [8 + 2*32]byte
	binary.LittleEndian.PutUint32(buf[0:4], a.SpecVersion)
	binary.LittleEndian.PutUint32(buf[4:8], a.TxVersion)
	copy(buf[8:40], a.GenesisHash[:])
	copy(buf[40:72], a.CheckpointHash[:])
	return encoder.Write(buf[:])
}

// SignedExtension splits per-transaction data into the transmitted extra
// and the additional signed data.
type SignedExtension interface {
	Extra() Extra
	AdditionalSigned() scale.Encodeable
}

// ExtraParams are the session parameters a signed extension is built from.
type ExtraParams struct {
	SpecVersion uint32
	TxVersion   uint32
	Nonce       uint32
	GenesisHash types.Hash
	Mortality   Mortality
	Tip         Balance
}

// SignedExtensionProvider builds the signed extension for one transaction.
type SignedExtensionProvider func(ExtraParams) SignedExtension

// DefaultExtra covers spec and transaction version, genesis, mortality,
// nonce, weight and transaction payment.
type DefaultExtra struct {
	extra      Extra
	additional AdditionalSigned
}

// NewDefaultExtra builds the default extension. An immortal era is checked
// against the genesis hash.
func NewDefaultExtra(p ExtraParams) DefaultExtra {
	era, checkpoint := p.Mortality.Era()
	hash := p.GenesisHash
	if checkpoint != nil {
		hash = *checkpoint
	}
	return DefaultExtra{
		extra: Extra{Era: era, Nonce: p.Nonce, Tip: p.Tip},
		additional: AdditionalSigned{
			SpecVersion:    p.SpecVersion,
			TxVersion:      p.TxVersion,
			GenesisHash:    p.GenesisHash,
			CheckpointHash: hash,
		},
	}
}

// DefaultExtraProvider is the SignedExtensionProvider for DefaultExtra.
func DefaultExtraProvider(p ExtraParams) SignedExtension {
	return NewDefaultExtra(p)
}

func (d DefaultExtra) Extra() Extra {
	return d.extra
}

func (d DefaultExtra) AdditionalSigned() scale.Encodeable {
	return d.additional
}
