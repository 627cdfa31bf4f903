package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airgap/internal/crypto"
)

const (
	devMnemonic        = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"
	aliceAddress       = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	badChecksumAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ"
)

func loaderWith(vars map[string]string) *EnvLoader {
	loader := NewEnvLoader(DefaultEnvPrefix)
	for k, v := range vars {
		loader.Set(k, v)
	}
	return loader
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLoader(loaderWith(nil))
	require.NoError(t, err)

	assert.Equal(t, "kusama", cfg.Runtime)
	assert.Equal(t, "sr25519", cfg.Scheme)
	assert.Equal(t, uint64(DefaultMortalPeriod), cfg.MortalPeriod)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultWatchTimeout, cfg.WatchTimeout)
	assert.False(t, cfg.Immortal)

	assert.Error(t, cfg.RequireSigner())
	_, err = cfg.Signer()
	assert.Error(t, err)
}

func TestFromLoader(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr bool
	}{
		{name: "dev derivation path", vars: map[string]string{"SECRET": "//Alice"}},
		{name: "valid mnemonic with path", vars: map[string]string{"SECRET": devMnemonic + "//Alice"}},
		{name: "hex seed", vars: map[string]string{"SECRET": "0x" + "11"}},
		{name: "westend ed25519", vars: map[string]string{"RUNTIME": "westend", "SCHEME": "ed25519"}},
		{name: "timeouts parse", vars: map[string]string{"FETCH_TIMEOUT": "5s", "IMMORTAL": "true"}},
		{name: "bad mnemonic word", vars: map[string]string{"SECRET": "bottom drive obey lake curtain smoke basket hold race lonely fit notaword"}, wantErr: true},
		{name: "unknown runtime", vars: map[string]string{"RUNTIME": "rococo"}, wantErr: true},
		{name: "unknown scheme", vars: map[string]string{"SCHEME": "bls"}, wantErr: true},
		{name: "bad log level", vars: map[string]string{"LOG_LEVEL": "chatty"}, wantErr: true},
		{name: "bad log format", vars: map[string]string{"LOG_FORMAT": "xml"}, wantErr: true},
		{name: "bad endpoint", vars: map[string]string{"SUBSTRATE_URL": "ftp://node"}, wantErr: true},
		{name: "bad prefix", vars: map[string]string{"SS58_PREFIX": "70000"}, wantErr: true},
		{name: "bad period", vars: map[string]string{"MORTAL_PERIOD": "-1"}, wantErr: true},
		{name: "zero timeout", vars: map[string]string{"FETCH_TIMEOUT": "0s"}, wantErr: true},
		{name: "default account", vars: map[string]string{"ACCOUNT": aliceAddress}},
		{name: "bad account checksum", vars: map[string]string{"ACCOUNT": badChecksumAddress}, wantErr: true},
		{name: "negative watch timeout", vars: map[string]string{"WATCH_TIMEOUT": "-1m"}, wantErr: true},
		{name: "secret and key file", vars: map[string]string{"SECRET": "//Alice", "KEY_FILE": "/tmp/key"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLoader(loaderWith(tt.vars))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChainOverride(t *testing.T) {
	cfg, err := FromLoader(loaderWith(map[string]string{"RUNTIME": "polkadot", "SS58_PREFIX": "42", "FETCH_TIMEOUT": "1m"}))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)

	rt, err := cfg.Chain()
	require.NoError(t, err)
	assert.Equal(t, "polkadot", rt.Name)
	assert.Equal(t, uint16(42), rt.SS58Prefix)
}

func TestSignerFromSecretAndKeyFile(t *testing.T) {
	cfg, err := FromLoader(loaderWith(map[string]string{"SECRET": "//Alice"}))
	require.NoError(t, err)
	signer, err := cfg.Signer()
	require.NoError(t, err)
	assert.Equal(t, crypto.Sr25519, signer.Scheme())

	path := filepath.Join(t.TempDir(), "alice.key")
	content := "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d\n//Alice\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err = FromLoader(loaderWith(map[string]string{"KEY_FILE": path}))
	require.NoError(t, err)
	fromFile, err := cfg.Signer()
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), fromFile.PublicKey())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AIRGAP_RUNTIME=westend\nAIRGAP_SCHEME=ed25519\nOTHER=1\n"), 0600))

	loader := loaderWith(map[string]string{"SCHEME": "ecdsa"})
	require.NoError(t, loader.LoadFile(path))

	assert.Equal(t, "westend", loader.GetString("RUNTIME", ""))
	assert.Equal(t, "ecdsa", loader.GetString("SCHEME", ""))
	assert.Equal(t, "", loader.GetString("OTHER", ""))

	assert.Error(t, loader.LoadFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidateSS58Address(t *testing.T) {
	assert.NoError(t, ValidateSS58Address(aliceAddress))
	assert.NoError(t, ValidateSS58Address(""))
	assert.Error(t, ValidateSS58Address(badChecksumAddress))
}

func TestResolveAccount(t *testing.T) {
	cfg, err := FromLoader(loaderWith(map[string]string{"ACCOUNT": aliceAddress}))
	require.NoError(t, err)
	assert.Equal(t, aliceAddress, cfg.Account)

	got, err := cfg.ResolveAccount("")
	require.NoError(t, err)
	assert.Equal(t, aliceAddress, got)

	_, err = cfg.ResolveAccount(badChecksumAddress)
	assert.Error(t, err)

	cfg.Account = ""
	got, err = cfg.ResolveAccount("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "signer.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"AIRGAP_RUNTIME=westend\nAIRGAP_SCHEME=ed25519\nAIRGAP_MORTAL_PERIOD=128\nUNRELATED=1\n"), 0600))

	t.Setenv("AIRGAP_SCHEME", "sr25519")

	cfg, err := Load(envFile, map[string]string{"MORTAL_PERIOD": "32"})
	require.NoError(t, err)

	assert.Equal(t, "westend", cfg.Runtime)
	assert.Equal(t, "sr25519", cfg.Scheme, "environment wins over the file")
	assert.Equal(t, uint64(32), cfg.MortalPeriod, "overrides win over everything")

	_, err = Load(filepath.Join(dir, "missing.env"), nil)
	assert.Error(t, err)
}
