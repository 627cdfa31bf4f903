package extrinsic

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"airgap/internal/codec"
)

// CallIndex identifies a dispatchable call by its module and call position.
type CallIndex struct {
	Module uint8
	Call   uint8
}

func (c CallIndex) Encode(encoder scale.Encoder) error {
	return encoder.Write([]byte{c.Module, c.Call})
}

func (c *CallIndex) Decode(decoder scale.Decoder) error {
	var b [2]byte
	if err := codec.ReadFull(decoder, b[:]); err != nil {
		return fmt.Errorf("decoding call index: %w", err)
	}
	c.Module, c.Call = b[0], b[1]
	return nil
}

func (c CallIndex) String() string {
	return fmt.Sprintf("%d.%d", c.Module, c.Call)
}

// CallArgs is the argument payload of a call. Implementations are pointer
// types so the same value can be encoded and decoded into.
type CallArgs interface {
	scale.Encodeable
	scale.Decodeable
}

// NamedCall is implemented by argument types that know where they live in
// the runtime metadata.
type NamedCall interface {
	Pallet() string
	Call() string
}

// GenericCall pairs a call index with its arguments. It encodes as the two
// index bytes followed by the argument encoding, with no length prefix.
type GenericCall[A CallArgs] struct {
	Index CallIndex
	Args  A
}

// NewCall builds a call from an already resolved index.
func NewCall[A CallArgs](index CallIndex, args A) GenericCall[A] {
	return GenericCall[A]{Index: index, Args: args}
}

func (c GenericCall[A]) Encode(encoder scale.Encoder) error {
	if err := c.Index.Encode(encoder); err != nil {
		return err
	}
	if err := c.Args.Encode(encoder); err != nil {
		return fmt.Errorf("encoding call %s args: %w", c.Index, err)
	}
	return nil
}

// Decode reads the index and then the arguments into c.Args, which must be
// non-nil. Trailing bytes are the caller's concern; see DecodeCall.
func (c *GenericCall[A]) Decode(decoder scale.Decoder) error {
	if err := c.Index.Decode(decoder); err != nil {
		return err
	}
	if err := c.Args.Decode(decoder); err != nil {
		return fmt.Errorf("decoding call %s args: %w", c.Index, err)
	}
	return nil
}

// Bytes returns the encoded call.
func (c GenericCall[A]) Bytes() ([]byte, error) {
	return codec.Encode(c)
}

// DecodeCall decodes data as a whole call whose arguments decode into args.
// Every byte of data must be consumed.
func DecodeCall[A CallArgs](data []byte, args A) (GenericCall[A], error) {
	call := GenericCall[A]{Args: args}
	if err := codec.DecodeExact(data, &call); err != nil {
		return GenericCall[A]{}, err
	}
	return call, nil
}

// RawArgs holds call arguments as opaque bytes. Decoding takes everything
// left in the input.
type RawArgs []byte

func (r RawArgs) Encode(encoder scale.Encoder) error {
	return encoder.Write(r)
}

func (r *RawArgs) Decode(decoder scale.Decoder) error {
	var out []byte
	for {
		b, err := decoder.ReadOneByte()
		if err != nil {
			break
		}
		out = append(out, b)
	}
	*r = out
	return nil
}
