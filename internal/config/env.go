package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"

	"airgap/internal/crypto"
	"airgap/internal/ss58"
)

// EnvLoader provides type-safe environment variable loading with validation
type EnvLoader struct {
	prefix string
	vars   map[string]string
}

// NewEnvLoader creates a new environment variable loader with the given prefix
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix: prefix,
		vars:   make(map[string]string),
	}
}

// LoadAll loads all environment variables with the configured prefix
func (e *EnvLoader) LoadAll() {
	for _, env := range os.Environ() {
		if parts := strings.SplitN(env, "=", 2); len(parts) == 2 {
			key := parts[0]
			if strings.HasPrefix(key, e.prefix) {
				e.vars[key] = parts[1]
			}
		}
	}
}

// LoadFile reads a dotenv file without touching the process environment.
// Values already loaded from the environment win.
func (e *EnvLoader) LoadFile(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	for key, val := range vars {
		if !strings.HasPrefix(key, e.prefix) {
			continue
		}
		if _, ok := e.vars[key]; !ok {
			e.vars[key] = val
		}
	}
	return nil
}

// Set overrides a value, as command line flags do.
func (e *EnvLoader) Set(key, value string) {
	e.vars[e.prefix+key] = value
}

// GetString returns a string value from environment variables
func (e *EnvLoader) GetString(key string, defaultValue string) string {
	fullKey := e.prefix + key
	if val, ok := e.vars[fullKey]; ok {
		return val
	}
	return defaultValue
}

// GetUint16 returns a uint16 value from environment variables
func (e *EnvLoader) GetUint16(key string, defaultValue uint16) (uint16, error) {
	if val := e.GetString(key, ""); val != "" {
		n, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid uint16 value for %s: %w", key, err)
		}
		return uint16(n), nil
	}
	return defaultValue, nil
}

// GetUint64 returns a uint64 value from environment variables
func (e *EnvLoader) GetUint64(key string, defaultValue uint64) (uint64, error) {
	if val := e.GetString(key, ""); val != "" {
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid uint64 value for %s: %w", key, err)
		}
		return n, nil
	}
	return defaultValue, nil
}

// GetBool returns a boolean value from environment variables
func (e *EnvLoader) GetBool(key string, defaultValue bool) bool {
	if val := e.GetString(key, ""); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultValue
}

// GetDuration returns a duration value from environment variables
func (e *EnvLoader) GetDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if val := e.GetString(key, ""); val != "" {
		return time.ParseDuration(val)
	}
	return defaultValue, nil
}

// Validate checks if a value meets certain validation criteria
type Validate func(string) error

// GetStringValidated returns a validated string value from environment variables
func (e *EnvLoader) GetStringValidated(key string, defaultValue string, validators ...Validate) (string, error) {
	val := e.GetString(key, defaultValue)
	for _, validate := range validators {
		if err := validate(val); err != nil {
			return "", fmt.Errorf("validation failed for %s: %w", key, err)
		}
	}
	return val, nil
}

// Common validators
var (
	ValidateNotEmpty = func(val string) error {
		if val == "" {
			return fmt.Errorf("value cannot be empty")
		}
		return nil
	}

	ValidateScheme = func(val string) error {
		_, err := crypto.ParseScheme(val)
		return err
	}

	ValidateLogLevel = func(val string) error {
		_, err := logrus.ParseLevel(val)
		return err
	}

	ValidateLogFormat = func(val string) error {
		if val != "text" && val != "json" {
			return fmt.Errorf("log format must be text or json")
		}
		return nil
	}

	ValidateEndpoint = func(val string) error {
		if val == "" {
			return nil
		}
		u, err := url.Parse(val)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		switch u.Scheme {
		case "ws", "wss", "http", "https":
			return nil
		}
		return fmt.Errorf("endpoint scheme must be ws, wss, http or https")
	}

	ValidateSS58Address = func(val string) error {
		if val == "" {
			return nil
		}
		if _, _, err := ss58.Decode(val); err != nil {
			return fmt.Errorf("invalid SS58 address: %w", err)
		}
		return nil
	}

	// ValidateSecret rejects secrets that look like a mnemonic but fail the
	// bip39 checksum. Derivation paths and hex seeds pass through.
	ValidateSecret = func(val string) error {
		phrase := val
		if i := strings.Index(phrase, "/"); i >= 0 {
			phrase = phrase[:i]
		}
		phrase = strings.TrimSpace(phrase)
		if phrase == "" || strings.HasPrefix(phrase, "0x") || !strings.Contains(phrase, " ") {
			return nil
		}
		if !bip39.IsMnemonicValid(phrase) {
			return fmt.Errorf("secret is not a valid bip39 mnemonic")
		}
		return nil
	}
)
