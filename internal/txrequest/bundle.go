// Package txrequest reads and writes the files that cross the air gap: the
// chain bundle fetched online and the transaction request signed offline.
package txrequest

import (
	"fmt"
	"os"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"airgap/internal/codec"
	"airgap/internal/metadata"
)

// File format versioning
const (
	BundleFormat            = "1.0.0"
	compatibleBundleFormats = ">= 1.0, < 2.0"
)

var bundleConstraint = mustConstraint(compatibleBundleFormats)

func mustConstraint(c string) version.Constraints {
	constraint, err := version.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Bundle is the chain state an offline signer needs.
type Bundle struct {
	Format             string    `yaml:"format"`
	Runtime            string    `yaml:"runtime"`
	GenesisHash        string    `yaml:"genesis_hash"`
	SpecVersion        uint32    `yaml:"spec_version"`
	TransactionVersion uint32    `yaml:"transaction_version"`
	CheckpointNumber   uint64    `yaml:"checkpoint_number"`
	CheckpointHash     string    `yaml:"checkpoint_hash"`
	Account            string    `yaml:"account,omitempty"`
	Nonce              *uint32   `yaml:"nonce,omitempty"`
	FetchedAt          time.Time `yaml:"fetched_at,omitempty"`
	Metadata           string    `yaml:"metadata"`
}

// LoadBundle reads a bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the bundle as YAML.
func (b *Bundle) Save(path string) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	return nil
}

// Validate checks that every hash and the metadata parse.
func (b *Bundle) Validate() error {
	if err := checkFormat(b.Format); err != nil {
		return err
	}
	if b.Runtime == "" {
		return fmt.Errorf("bundle has no runtime")
	}
	if _, err := b.Genesis(); err != nil {
		return err
	}
	if _, err := b.Checkpoint(); err != nil {
		return err
	}
	if b.Metadata == "" {
		return fmt.Errorf("bundle has no metadata")
	}
	return nil
}

// Genesis returns the parsed genesis hash.
func (b *Bundle) Genesis() (types.Hash, error) {
	return parseHash("genesis hash", b.GenesisHash)
}

// Checkpoint returns the parsed checkpoint hash.
func (b *Bundle) Checkpoint() (types.Hash, error) {
	return parseHash("checkpoint hash", b.CheckpointHash)
}

// DecodeMetadata decodes the embedded metadata blob.
func (b *Bundle) DecodeMetadata() (*metadata.Metadata, error) {
	return metadata.DecodeHex(b.Metadata)
}

// checkFormat rejects bundles written by an incompatible release.
func checkFormat(format string) error {
	if format == "" {
		return fmt.Errorf("bundle has no format version")
	}
	v, err := version.NewVersion(format)
	if err != nil {
		return fmt.Errorf("invalid bundle format %q: %w", format, err)
	}
	if !bundleConstraint.Check(v) {
		return fmt.Errorf("bundle format %s is not supported, need %s", v, compatibleBundleFormats)
	}
	return nil
}

func parseHash(what, s string) (types.Hash, error) {
	raw, err := codec.DecodeHex(s)
	if err != nil {
		return types.Hash{}, fmt.Errorf("bundle %s: %w", what, err)
	}
	if len(raw) != len(types.Hash{}) {
		return types.Hash{}, fmt.Errorf("bundle %s is %d bytes, want 32", what, len(raw))
	}
	return types.NewHash(raw), nil
}
