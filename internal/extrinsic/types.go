package extrinsic

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/codec"
	"airgap/internal/crypto"
)

// Balance is a u128 amount carried in compact form on the wire.
type Balance types.UCompact

// NewBalance returns a balance of v planck.
func NewBalance(v uint64) Balance {
	return Balance(types.NewUCompactFromUInt(v))
}

// NewBalanceFromBig returns a balance from an arbitrary precision integer.
func NewBalanceFromBig(v *big.Int) Balance {
	return Balance(types.NewUCompact(v))
}

// Int returns the balance as a big integer.
func (b Balance) Int() *big.Int {
	i := big.Int(b)
	return new(big.Int).Set(&i)
}

func (b Balance) String() string {
	return b.Int().String()
}

func (b Balance) Encode(encoder scale.Encoder) error {
	return encoder.EncodeUintCompact(*b.Int())
}

func (b *Balance) Decode(decoder scale.Decoder) error {
	v, err := codec.ReadCompact(decoder)
	if err != nil {
		return fmt.Errorf("decoding balance: %w", err)
	}
	*b = Balance(*v)
	return nil
}

// AddressFormat selects how a runtime encodes account addresses.
type AddressFormat uint8

const (
	// AddressAccountID is a bare 32 byte account id.
	AddressAccountID AddressFormat = iota
	// AddressMultiID is MultiAddress::Id, a zero tag followed by the account id.
	AddressMultiID
)

const multiAddressIDTag = 0x00

// Address is the signer or destination of a call, encoded according to Format.
type Address struct {
	Format    AddressFormat
	AccountID types.AccountID
}

// NewAddress returns an address for id in the given format.
func NewAddress(format AddressFormat, id types.AccountID) Address {
	return Address{Format: format, AccountID: id}
}

// ID returns the underlying account id.
func (a Address) ID() types.AccountID {
	return a.AccountID
}

func (a Address) Encode(encoder scale.Encoder) error {
	switch a.Format {
	case AddressAccountID:
	case AddressMultiID:
		if err := encoder.PushByte(multiAddressIDTag); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedAddress, a.Format)
	}
	return encoder.Write(a.AccountID[:])
}

// Decode reads an address in the format already set on a.
func (a *Address) Decode(decoder scale.Decoder) error {
	switch a.Format {
	case AddressAccountID:
	case AddressMultiID:
		tag, err := codec.ReadByte(decoder)
		if err != nil {
			return fmt.Errorf("decoding multi address: %w", err)
		}
		if tag != multiAddressIDTag {
			return fmt.Errorf("%w: multi address variant %d", ErrUnsupportedAddress, tag)
		}
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedAddress, a.Format)
	}
	if err := codec.ReadFull(decoder, a.AccountID[:]); err != nil {
		return fmt.Errorf("decoding account id: %w", err)
	}
	return nil
}

// MultiSignature is a signature tagged with the scheme that produced it.
type MultiSignature struct {
	Scheme crypto.Scheme
	Bytes  []byte
}

// NewMultiSignature checks the length of sig against scheme.
func NewMultiSignature(scheme crypto.Scheme, sig []byte) (MultiSignature, error) {
	size, err := scheme.SignatureSize()
	if err != nil {
		return MultiSignature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != size {
		return MultiSignature{}, fmt.Errorf("%w: %s signature is %d bytes, want %d",
			ErrInvalidSignature, scheme, len(sig), size)
	}
	return MultiSignature{Scheme: scheme, Bytes: append([]byte(nil), sig...)}, nil
}

func (s MultiSignature) Encode(encoder scale.Encoder) error {
	size, err := s.Scheme.SignatureSize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(s.Bytes) != size {
		return fmt.Errorf("%w: %s signature is %d bytes, want %d",
			ErrInvalidSignature, s.Scheme, len(s.Bytes), size)
	}
	if err := encoder.PushByte(byte(s.Scheme)); err != nil {
		return err
	}
	return encoder.Write(s.Bytes)
}

func (s *MultiSignature) Decode(decoder scale.Decoder) error {
	tag, err := codec.ReadByte(decoder)
	if err != nil {
		return fmt.Errorf("decoding signature tag: %w", err)
	}
	scheme := crypto.Scheme(tag)
	size, err := scheme.SignatureSize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	sig := make([]byte, size)
	if err := codec.ReadFull(decoder, sig); err != nil {
		return fmt.Errorf("decoding %s signature: %w", scheme, err)
	}
	s.Scheme, s.Bytes = scheme, sig
	return nil
}
