package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"airgap/internal/codec"
	"airgap/internal/metadata"
	"airgap/internal/txrequest"
)

// KusamaGenesis is the Kusama genesis hash.
const KusamaGenesis = "0xb0a8d493285c2df73290dfb7e61f870f17b41801197a149ca93654499ea3dafe"

// Well known development accounts, as hex account ids.
const (
	AliceID = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	BobID   = "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

// KusamaModules is a trimmed Kusama call table with the real indices of the
// pallets the signer builds calls for.
func KusamaModules() []metadata.Module {
	return []metadata.Module{
		{Name: "System", Index: 0, Calls: []string{"fill_block", "remark", "set_heap_pages", "set_code"}},
		{Name: "Timestamp", Index: 2, Calls: []string{"set"}},
		{Name: "Balances", Index: 4, Calls: []string{"transfer", "set_balance", "force_transfer", "transfer_keep_alive"}},
		{Name: "Staking", Index: 6, Calls: []string{"bond", "bond_extra", "unbond"}},
	}
}

// Bundle returns a valid bundle for runtime carrying KusamaModules.
func Bundle(t *testing.T, runtime string, nonce uint32) *txrequest.Bundle {
	t.Helper()
	raw, err := metadata.Encode(KusamaModules())
	require.NoError(t, err)

	return &txrequest.Bundle{
		Format:             txrequest.BundleFormat,
		Runtime:            runtime,
		GenesisHash:        KusamaGenesis,
		SpecVersion:        1045,
		TransactionVersion: 1,
		CheckpointNumber:   4_000_000,
		CheckpointHash:     "0x" + strings.Repeat("42", 32),
		Nonce:              &nonce,
		FetchedAt:          time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		Metadata:           codec.EncodeHex(raw),
	}
}

// WriteYAML marshals v into name under dir and returns the path.
func WriteYAML(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// WriteFile writes content to name under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
