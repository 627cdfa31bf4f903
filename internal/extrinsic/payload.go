package extrinsic

import (
	"bytes"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"airgap/internal/codec"
)

// MaxUnhashedPayload is the largest payload signed as-is. Longer payloads are
// replaced by their blake2-256 hash before signing.
const MaxUnhashedPayload = 256

// SignedPayload is what a signer signs: call, extra and additional signed
// data, concatenated.
type SignedPayload struct {
	Call             scale.Encodeable
	Extra            Extra
	AdditionalSigned scale.Encodeable
}

// NewSignedPayload builds the payload for call under ext.
func NewSignedPayload(call scale.Encodeable, ext SignedExtension) SignedPayload {
	return SignedPayload{
		Call:             call,
		Extra:            ext.Extra(),
		AdditionalSigned: ext.AdditionalSigned(),
	}
}

func (p SignedPayload) Encode(encoder scale.Encoder) error {
	if err := p.Call.Encode(encoder); err != nil {
		return fmt.Errorf("encoding payload call: %w", err)
	}
	if err := p.Extra.Encode(encoder); err != nil {
		return fmt.Errorf("encoding payload extra: %w", err)
	}
	if err := p.AdditionalSigned.Encode(encoder); err != nil {
		return fmt.Errorf("encoding payload additional signed: %w", err)
	}
	return nil
}

// Bytes returns the full, unhashed payload.
func (p SignedPayload) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SigningBytes returns the bytes handed to the signer.
func (p SignedPayload) SigningBytes() ([]byte, error) {
	raw, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	return signingBytes(raw), nil
}

func signingBytes(raw []byte) []byte {
	if len(raw) > MaxUnhashedPayload {
		h := codec.Blake2_256(raw)
		return h[:]
	}
	return raw
}

// Sign runs signer over the signing bytes.
func (p SignedPayload) Sign(signer Signer) (MultiSignature, error) {
	msg, err := p.SigningBytes()
	if err != nil {
		return MultiSignature{}, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return MultiSignature{}, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	ms, err := NewMultiSignature(signer.Scheme(), sig)
	if err != nil {
		return MultiSignature{}, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return ms, nil
}
