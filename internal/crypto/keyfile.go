package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// KeyFile is a key stored on disk: the hex public key on the first line and
// the secret on the second.
type KeyFile struct {
	PublicKey []byte
	Secret    string
}

// LoadKeyFile reads and parses a key file.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return parseKeyFile(data)
}

func parseKeyFile(data []byte) (*KeyFile, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("invalid key file format")
	}

	pubKey, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(lines[0]), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	secret := strings.TrimSpace(lines[1])
	if secret == "" {
		return nil, fmt.Errorf("key file has no secret")
	}

	return &KeyFile{
		PublicKey: pubKey,
		Secret:    secret,
	}, nil
}

// Signer derives the signer for the stored secret and checks that it
// matches the stored public key.
func (k *KeyFile) Signer(scheme Scheme) (Signer, error) {
	signer, err := NewSigner(scheme, k.Secret)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(signer.PublicKey(), k.PublicKey) {
		return nil, fmt.Errorf("key file public key does not match %s secret", scheme)
	}
	return signer, nil
}
