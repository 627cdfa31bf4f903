package codec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrDecodeTruncated is returned when the input ends before a value is complete.
	ErrDecodeTruncated = errors.New("decode: input truncated")
	// ErrDecodeTrailingBytes is returned when bytes remain after a complete value.
	ErrDecodeTrailingBytes = errors.New("decode: trailing bytes")
)

// Encode SCALE encodes v into a fresh byte slice.
func Encode(v scale.Encodeable) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeExact decodes data into v and fails if any input is left over.
func DecodeExact(data []byte, v scale.Decodeable) error {
	r := bytes.NewReader(data)
	if err := v.Decode(*scale.NewDecoder(r)); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d unconsumed", ErrDecodeTrailingBytes, r.Len())
	}
	return nil
}

// ReadByte reads a single byte.
func ReadByte(decoder scale.Decoder) (byte, error) {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecodeTruncated, err)
	}
	return b, nil
}

// ReadFull fills buf completely.
func ReadFull(decoder scale.Decoder, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if err := decoder.Read(buf); err != nil {
		return fmt.Errorf("%w: reading %d bytes: %v", ErrDecodeTruncated, len(buf), err)
	}
	return nil
}

// ReadCompact reads a SCALE compact integer.
func ReadCompact(decoder scale.Decoder) (*big.Int, error) {
	v, err := decoder.DecodeUintCompact()
	if err != nil {
		return nil, fmt.Errorf("%w: compact: %v", ErrDecodeTruncated, err)
	}
	return v, nil
}

// ReadCompactUint64 reads a compact integer that must fit in max.
func ReadCompactUint64(decoder scale.Decoder, max uint64) (uint64, error) {
	v, err := ReadCompact(decoder)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() || v.Uint64() > max {
		return 0, fmt.Errorf("compact value %s exceeds %d", v, max)
	}
	return v.Uint64(), nil
}

// WriteCompact writes v as a SCALE compact integer.
func WriteCompact(encoder scale.Encoder, v uint64) error {
	return encoder.EncodeUintCompact(*new(big.Int).SetUint64(v))
}

// PrefixLength returns compact(len(body)) followed by body.
func PrefixLength(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(body) + 5)
	if err := WriteCompact(*scale.NewEncoder(&buf), uint64(len(body))); err != nil {
		return nil, fmt.Errorf("encoding length prefix: %w", err)
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// Blake2_256 hashes data with unkeyed blake2b-256.
func Blake2_256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// EncodeHex renders b as 0x-prefixed lowercase hex.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex parses hex with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
