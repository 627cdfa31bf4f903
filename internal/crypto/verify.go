package crypto

import (
	subed25519 "github.com/vedhavyas/go-subkey/v2/ed25519"
)

const (
	ed25519PublicKeySize = 32
	ed25519SignatureSize = 64
)

// Verify checks signature over message for publicKey under scheme.
func Verify(scheme Scheme, message, signature, publicKey []byte) bool {
	switch scheme {
	case Sr25519:
		ok, err := VerifySr25519(message, signature, publicKey)
		return err == nil && ok
	case Ed25519:
		return verifyEd25519(message, signature, publicKey)
	case Ecdsa:
		return verifyEcdsa(message, signature, publicKey)
	}
	return false
}

// verifyEd25519 checks lengths first; the keyring does not.
func verifyEd25519(message, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519PublicKeySize || len(signature) != ed25519SignatureSize {
		return false
	}
	pub, err := subed25519.Scheme{}.FromPublicKey(publicKey)
	if err != nil {
		return false
	}
	return pub.Verify(message, signature)
}
