package crypto

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	subkey "github.com/vedhavyas/go-subkey/v2"
	subed25519 "github.com/vedhavyas/go-subkey/v2/ed25519"
	subsr25519 "github.com/vedhavyas/go-subkey/v2/sr25519"
)

// Signer defines the interface for message signing operations
type Signer interface {
	// Sign signs the provided message and returns the signature
	Sign(message []byte) ([]byte, error)

	// Verify verifies the signature against the message
	Verify(message, signature []byte) bool

	// PublicKey returns the public key bytes
	PublicKey() []byte

	// AccountID returns the on-chain account id controlled by the key
	AccountID() types.AccountID

	// Scheme returns the signature scheme
	Scheme() Scheme
}

// NewSigner creates a signer for scheme from a secret. For sr25519 and
// ed25519 the secret is a substrate secret URI (mnemonic, hex seed, or a
// derivation path such as "//Alice"); for ecdsa it is a hex private key.
func NewSigner(scheme Scheme, secret string) (Signer, error) {
	switch scheme {
	case Sr25519:
		return NewKeyringSigner(subsr25519.Scheme{}, Sr25519, secret)
	case Ed25519:
		return NewKeyringSigner(subed25519.Scheme{}, Ed25519, secret)
	case Ecdsa:
		return NewEcdsaSigner(secret)
	}
	return nil, fmt.Errorf("%w: tag %d", ErrUnknownScheme, uint8(scheme))
}

// KeyringSigner signs with a key pair derived from a secret URI.
type KeyringSigner struct {
	pair   subkey.KeyPair
	scheme Scheme
}

// NewKeyringSigner derives a key pair for uri under the given subkey scheme.
func NewKeyringSigner(keyScheme subkey.Scheme, scheme Scheme, uri string) (*KeyringSigner, error) {
	pair, err := subkey.DeriveKeyPair(keyScheme, uri)
	if err != nil {
		return nil, fmt.Errorf("deriving %s key pair: %w", scheme, err)
	}
	return &KeyringSigner{pair: pair, scheme: scheme}, nil
}

func (s *KeyringSigner) Sign(message []byte) ([]byte, error) {
	sig, err := s.pair.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	return sig, nil
}

func (s *KeyringSigner) Verify(message, signature []byte) bool {
	return s.pair.Verify(message, signature)
}

func (s *KeyringSigner) PublicKey() []byte {
	return s.pair.Public()
}

func (s *KeyringSigner) AccountID() types.AccountID {
	var id types.AccountID
	copy(id[:], s.pair.AccountID())
	return id
}

func (s *KeyringSigner) Scheme() Scheme {
	return s.scheme
}
