package crypto

import (
	"github.com/ChainSafe/go-schnorrkel"
	"github.com/gtank/merlin"
)

// SigningContext is the schnorrkel context substrate runtimes verify against
const SigningContext = "substrate"

// VerifySr25519 verifies an sr25519 signature
func VerifySr25519(message, signature, publicKey []byte) (bool, error) {
	if len(publicKey) != 32 || len(signature) != 64 {
		return false, nil
	}

	var pubKeyBytes [32]byte
	copy(pubKeyBytes[:], publicKey)

	pubKey, err := schnorrkel.NewPublicKey(pubKeyBytes)
	if err != nil {
		return false, err
	}

	var sigBytes [64]byte
	copy(sigBytes[:], signature)
	sig := new(schnorrkel.Signature)
	if err := sig.Decode(sigBytes); err != nil {
		return false, err
	}

	t := merlin.NewTranscript("SigningContext")
	t.AppendMessage([]byte(""), []byte(SigningContext))
	t.AppendMessage([]byte("sign-bytes"), message)

	return pubKey.Verify(sig, t)
}
