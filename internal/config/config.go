package config

import (
	"fmt"
	"os"
	"time"

	"airgap/internal/crypto"
	"airgap/internal/runtime"
)

const (
	// DefaultEnvPrefix is the default prefix for environment variables
	DefaultEnvPrefix = "AIRGAP_"

	DefaultRuntime      = "kusama"
	DefaultScheme       = "sr25519"
	DefaultMortalPeriod = 64
	DefaultFetchTimeout = 30 * time.Second
	DefaultWatchTimeout = 5 * time.Minute
)

// Config represents the signer configuration
type Config struct {
	// Chain
	Runtime      string
	SS58Prefix   uint16 // Overrides the runtime's prefix when non-zero
	SubstrateURL string // Only used by the online commands
	FetchTimeout time.Duration
	WatchTimeout time.Duration // How long submit --watch follows an extrinsic

	// Signing key
	Scheme  string
	Secret  string // Secret URI, mnemonic or hex seed
	KeyFile string // Alternative to Secret
	Account string // Default SS58 signing account for payload, assemble and fetch

	// Transaction defaults
	MortalPeriod uint64 // Zero means immortal
	Immortal     bool

	// Output
	LogLevel    string
	LogFormat   string
	MetricsFile string // Prometheus textfile, empty to disable
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := runtime.Lookup(c.Runtime); err != nil {
		return err
	}
	if err := ValidateScheme(c.Scheme); err != nil {
		return err
	}
	if c.Secret != "" && c.KeyFile != "" {
		return fmt.Errorf("secret and key file are mutually exclusive")
	}
	if err := ValidateSecret(c.Secret); err != nil {
		return err
	}
	if err := ValidateSS58Address(c.Account); err != nil {
		return err
	}
	if err := ValidateEndpoint(c.SubstrateURL); err != nil {
		return err
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.WatchTimeout <= 0 {
		return fmt.Errorf("watch timeout must be positive")
	}
	if err := ValidateLogLevel(c.LogLevel); err != nil {
		return err
	}
	if err := ValidateLogFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// RequireSigner checks that a signing key is configured.
func (c *Config) RequireSigner() error {
	if c.Secret == "" && c.KeyFile == "" {
		return fmt.Errorf("a secret or key file is required for signing")
	}
	return nil
}

// ResolveAccount returns account, or the configured default when it is
// empty. The result is empty only when neither is set.
func (c *Config) ResolveAccount(account string) (string, error) {
	if account == "" {
		account = c.Account
	}
	if err := ValidateSS58Address(account); err != nil {
		return "", err
	}
	return account, nil
}

// Chain returns the configured runtime with the SS58 override applied.
func (c *Config) Chain() (runtime.Runtime, error) {
	rt, err := runtime.Lookup(c.Runtime)
	if err != nil {
		return runtime.Runtime{}, err
	}
	if c.SS58Prefix != 0 {
		rt.SS58Prefix = c.SS58Prefix
	}
	return rt, nil
}

// Signer builds the configured signer.
func (c *Config) Signer() (crypto.Signer, error) {
	if err := c.RequireSigner(); err != nil {
		return nil, err
	}
	scheme, err := crypto.ParseScheme(c.Scheme)
	if err != nil {
		return nil, err
	}
	if c.KeyFile != "" {
		kf, err := crypto.LoadKeyFile(c.KeyFile)
		if err != nil {
			return nil, err
		}
		return kf.Signer(scheme)
	}
	return crypto.NewSigner(scheme, c.Secret)
}

// Load loads configuration from environment variables, then envFile (or
// ./.env when it exists), then overrides keyed without the prefix.
func Load(envFile string, overrides map[string]string) (*Config, error) {
	loader := NewEnvLoader(DefaultEnvPrefix)
	loader.LoadAll()

	if envFile != "" {
		if err := loader.LoadFile(envFile); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := loader.LoadFile(".env"); err != nil {
			return nil, err
		}
	}

	for key, val := range overrides {
		loader.Set(key, val)
	}
	return FromLoader(loader)
}

// FromLoader builds and validates a configuration from loaded variables
func FromLoader(loader *EnvLoader) (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Runtime, err = loader.GetStringValidated("RUNTIME", DefaultRuntime, ValidateNotEmpty); err != nil {
		return nil, err
	}
	if cfg.SS58Prefix, err = loader.GetUint16("SS58_PREFIX", 0); err != nil {
		return nil, fmt.Errorf("invalid SS58 prefix: %w", err)
	}
	cfg.SubstrateURL = loader.GetString("SUBSTRATE_URL", "ws://127.0.0.1:9944")
	if cfg.FetchTimeout, err = loader.GetDuration("FETCH_TIMEOUT", DefaultFetchTimeout); err != nil {
		return nil, fmt.Errorf("invalid fetch timeout: %w", err)
	}
	if cfg.WatchTimeout, err = loader.GetDuration("WATCH_TIMEOUT", DefaultWatchTimeout); err != nil {
		return nil, fmt.Errorf("invalid watch timeout: %w", err)
	}

	if cfg.Scheme, err = loader.GetStringValidated("SCHEME", DefaultScheme, ValidateScheme); err != nil {
		return nil, err
	}
	cfg.Secret = loader.GetString("SECRET", "")
	cfg.KeyFile = loader.GetString("KEY_FILE", "")
	if cfg.Account, err = loader.GetStringValidated("ACCOUNT", "", ValidateSS58Address); err != nil {
		return nil, err
	}

	if cfg.MortalPeriod, err = loader.GetUint64("MORTAL_PERIOD", DefaultMortalPeriod); err != nil {
		return nil, fmt.Errorf("invalid mortal period: %w", err)
	}
	cfg.Immortal = loader.GetBool("IMMORTAL", false)

	cfg.LogLevel = loader.GetString("LOG_LEVEL", "info")
	cfg.LogFormat = loader.GetString("LOG_FORMAT", "text")
	cfg.MetricsFile = loader.GetString("METRICS_FILE", "")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
