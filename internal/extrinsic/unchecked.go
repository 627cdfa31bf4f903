package extrinsic

import (
	"bytes"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"airgap/internal/codec"
)

const (
	// TransactionVersion is the extrinsic format version in the low 7 bits.
	TransactionVersion byte = 4
	signedFlag         byte = 0x80
	versionMask        byte = 0x7f
)

// SignatureTriple is the signer part of a signed extrinsic.
type SignatureTriple struct {
	Address   Address
	Signature MultiSignature
	Extra     Extra
}

func (s SignatureTriple) Encode(encoder scale.Encoder) error {
	if err := s.Address.Encode(encoder); err != nil {
		return fmt.Errorf("encoding address: %w", err)
	}
	if err := s.Signature.Encode(encoder); err != nil {
		return fmt.Errorf("encoding signature: %w", err)
	}
	return s.Extra.Encode(encoder)
}

func (s *SignatureTriple) Decode(decoder scale.Decoder) error {
	if err := s.Address.Decode(decoder); err != nil {
		return fmt.Errorf("decoding address: %w", err)
	}
	if err := s.Signature.Decode(decoder); err != nil {
		return err
	}
	if err := s.Extra.Decode(decoder); err != nil {
		return fmt.Errorf("decoding extra: %w", err)
	}
	return nil
}

// UncheckedExtrinsic is a transaction as submitted to a node. Signature is
// nil for unsigned extrinsics.
type UncheckedExtrinsic[A CallArgs] struct {
	Signature *SignatureTriple
	Call      GenericCall[A]
}

// IsSigned reports whether the extrinsic carries a signature.
func (u UncheckedExtrinsic[A]) IsSigned() bool {
	return u.Signature != nil
}

// Body returns the envelope without its length prefix.
func (u UncheckedExtrinsic[A]) Body() ([]byte, error) {
	var buf bytes.Buffer
	enc := scale.NewEncoder(&buf)
	version := TransactionVersion
	if u.Signature != nil {
		version |= signedFlag
	}
	if err := enc.PushByte(version); err != nil {
		return nil, err
	}
	if u.Signature != nil {
		if err := u.Signature.Encode(*enc); err != nil {
			return nil, err
		}
	}
	if err := u.Call.Encode(*enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Bytes returns the length-prefixed envelope.
func (u UncheckedExtrinsic[A]) Bytes() ([]byte, error) {
	body, err := u.Body()
	if err != nil {
		return nil, err
	}
	return codec.PrefixLength(body)
}

func (u UncheckedExtrinsic[A]) Encode(encoder scale.Encoder) error {
	b, err := u.Bytes()
	if err != nil {
		return err
	}
	return encoder.Write(b)
}

// Hex returns the 0x-prefixed envelope, as accepted by author_submitExtrinsic.
func (u UncheckedExtrinsic[A]) Hex() (string, error) {
	b, err := u.Bytes()
	if err != nil {
		return "", err
	}
	return codec.EncodeHex(b), nil
}

// Hash returns the blake2-256 hash a node reports for the extrinsic.
func (u UncheckedExtrinsic[A]) Hash() ([32]byte, error) {
	b, err := u.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	return codec.Blake2_256(b), nil
}

// DecodeUncheckedExtrinsic decodes a length-prefixed envelope. Addresses are
// read in the given format and call arguments into args.
func DecodeUncheckedExtrinsic[A CallArgs](data []byte, format AddressFormat, args A) (UncheckedExtrinsic[A], error) {
	r := bytes.NewReader(data)
	dec := scale.NewDecoder(r)

	prefix, err := codec.ReadCompact(*dec)
	if err != nil {
		return UncheckedExtrinsic[A]{}, fmt.Errorf("decoding extrinsic length: %w", err)
	}
	remaining := uint64(r.Len())
	switch length := prefix.Uint64(); {
	case !prefix.IsUint64() || length > remaining:
		return UncheckedExtrinsic[A]{}, fmt.Errorf("%w: length prefix %s, %d bytes available",
			codec.ErrDecodeTruncated, prefix, remaining)
	case length < remaining:
		return UncheckedExtrinsic[A]{}, fmt.Errorf("%w: length prefix %d, %d bytes available",
			codec.ErrDecodeTrailingBytes, length, remaining)
	}

	version, err := codec.ReadByte(*dec)
	if err != nil {
		return UncheckedExtrinsic[A]{}, fmt.Errorf("decoding extrinsic version: %w", err)
	}
	if version&versionMask != TransactionVersion {
		return UncheckedExtrinsic[A]{}, fmt.Errorf("%w: %d", ErrInvalidTransactionVersion, version&versionMask)
	}

	var out UncheckedExtrinsic[A]
	if version&signedFlag != 0 {
		triple := SignatureTriple{Address: Address{Format: format}}
		if err := triple.Decode(*dec); err != nil {
			return UncheckedExtrinsic[A]{}, err
		}
		out.Signature = &triple
	}

	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil && len(rest) > 0 {
		return UncheckedExtrinsic[A]{}, fmt.Errorf("%w: %v", codec.ErrDecodeTruncated, err)
	}
	call, err := DecodeCall(rest, args)
	if err != nil {
		return UncheckedExtrinsic[A]{}, err
	}
	out.Call = call
	return out, nil
}
