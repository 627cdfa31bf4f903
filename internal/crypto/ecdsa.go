package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"airgap/internal/codec"
)

// EcdsaSigner signs with a secp256k1 key. Messages are blake2-256 hashed
// before signing and signatures carry the recovery id as a 65th byte.
type EcdsaSigner struct {
	key *ecdsa.PrivateKey
}

// NewEcdsaSigner parses a 32 byte hex private key.
func NewEcdsaSigner(secret string) (*EcdsaSigner, error) {
	raw, err := codec.DecodeHex(secret)
	if err != nil {
		return nil, fmt.Errorf("parsing ecdsa secret: %w", err)
	}
	key, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing ecdsa secret: %w", err)
	}
	return &EcdsaSigner{key: key}, nil
}

func (s *EcdsaSigner) Sign(message []byte) ([]byte, error) {
	digest := codec.Blake2_256(message)
	sig, err := ethcrypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	return sig, nil
}

func (s *EcdsaSigner) Verify(message, signature []byte) bool {
	return verifyEcdsa(message, signature, s.PublicKey())
}

// PublicKey returns the 33 byte compressed public key.
func (s *EcdsaSigner) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&s.key.PublicKey)
}

// AccountID is the blake2-256 hash of the compressed public key.
func (s *EcdsaSigner) AccountID() types.AccountID {
	return types.AccountID(codec.Blake2_256(s.PublicKey()))
}

func (s *EcdsaSigner) Scheme() Scheme {
	return Ecdsa
}

func verifyEcdsa(message, signature, publicKey []byte) bool {
	if len(signature) != 65 {
		return false
	}
	digest := codec.Blake2_256(message)
	return ethcrypto.VerifySignature(publicKey, digest[:], signature[:64])
}
