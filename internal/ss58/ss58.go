// Package ss58 encodes and decodes SS58 account addresses.
package ss58

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/decred/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	checksumLen  = 2
	maxPrefix    = 16383
	simplePrefix = 64
)

var (
	ErrInvalidAddress  = errors.New("invalid ss58 address")
	ErrInvalidChecksum = errors.New("invalid ss58 checksum")
	ErrInvalidPrefix   = errors.New("invalid ss58 prefix")
)

var checksumPreimage = []byte("SS58PRE")

// Encode renders a 32 byte account id for the given network prefix.
func Encode(id types.AccountID, prefix uint16) (string, error) {
	head, err := encodePrefix(prefix)
	if err != nil {
		return "", err
	}
	payload := append(head, id[:]...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:checksumLen]...)), nil
}

// Decode parses an address and returns its account id and network prefix.
func Decode(addr string) (types.AccountID, uint16, error) {
	raw := base58.Decode(addr)
	if len(raw) == 0 {
		return types.AccountID{}, 0, fmt.Errorf("%w: not base58", ErrInvalidAddress)
	}

	prefix, headLen, err := decodePrefix(raw)
	if err != nil {
		return types.AccountID{}, 0, err
	}
	if len(raw) != headLen+32+checksumLen {
		return types.AccountID{}, 0, fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(raw))
	}

	body := raw[:headLen+32]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], raw[headLen+32:]) {
		return types.AccountID{}, 0, ErrInvalidChecksum
	}

	var id types.AccountID
	copy(id[:], raw[headLen:headLen+32])
	return id, prefix, nil
}

// DecodeWithPrefix decodes addr and checks that it belongs to network prefix.
func DecodeWithPrefix(addr string, prefix uint16) (types.AccountID, error) {
	id, got, err := Decode(addr)
	if err != nil {
		return types.AccountID{}, err
	}
	if got != prefix {
		return types.AccountID{}, fmt.Errorf("%w: address is for network %d, want %d", ErrInvalidPrefix, got, prefix)
	}
	return id, nil
}

func encodePrefix(prefix uint16) ([]byte, error) {
	switch {
	case prefix < simplePrefix:
		return []byte{byte(prefix)}, nil
	case prefix <= maxPrefix:
		return []byte{
			byte((prefix&0xfc)>>2) | 0x40,
			byte(prefix>>8) | byte(prefix&0x03)<<6,
		}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidPrefix, prefix)
}

func decodePrefix(raw []byte) (uint16, int, error) {
	switch first := raw[0]; {
	case first < simplePrefix:
		return uint16(first), 1, nil
	case first < 128:
		if len(raw) < 2 {
			return 0, 0, fmt.Errorf("%w: truncated prefix", ErrInvalidAddress)
		}
		second := raw[1]
		lower := (first << 2) | (second >> 6)
		upper := second & 0x3f
		return uint16(lower) | uint16(upper)<<8, 2, nil
	}
	return 0, 0, fmt.Errorf("%w: reserved prefix byte %d", ErrInvalidPrefix, raw[0])
}

func checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte(nil), checksumPreimage...), payload...))
}
