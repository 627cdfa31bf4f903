package crypto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScheme is returned for signature schemes other than ed25519, sr25519 and ecdsa.
var ErrUnknownScheme = errors.New("unknown signature scheme")

// Scheme is a signature scheme. Values match the MultiSignature variant tags.
type Scheme uint8

const (
	Ed25519 Scheme = 0
	Sr25519 Scheme = 1
	Ecdsa   Scheme = 2
)

// ParseScheme parses a scheme name, case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ed25519":
		return Ed25519, nil
	case "sr25519":
		return Sr25519, nil
	case "ecdsa", "secp256k1":
		return Ecdsa, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// SignatureSize returns the encoded signature length for the scheme.
func (s Scheme) SignatureSize() (int, error) {
	switch s {
	case Ed25519, Sr25519:
		return 64, nil
	case Ecdsa:
		return 65, nil
	}
	return 0, fmt.Errorf("%w: tag %d", ErrUnknownScheme, uint8(s))
}

func (s Scheme) String() string {
	switch s {
	case Ed25519:
		return "ed25519"
	case Sr25519:
		return "sr25519"
	case Ecdsa:
		return "ecdsa"
	}
	return fmt.Sprintf("scheme(%d)", uint8(s))
}
