package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/extrinsic"
)

// ErrUnknownRuntime is returned by Lookup for runtimes not listed here.
var ErrUnknownRuntime = errors.New("unknown runtime")

// Runtime describes what the offline builder needs to know about a chain
// beyond its metadata.
type Runtime struct {
	Name          string
	SS58Prefix    uint16
	TokenDecimals int32
	TokenSymbol   string
	AddressFormat extrinsic.AddressFormat
	Extension     extrinsic.SignedExtensionProvider
}

var (
	Kusama = Runtime{
		Name:          "kusama",
		SS58Prefix:    2,
		TokenDecimals: 12,
		TokenSymbol:   "KSM",
		AddressFormat: extrinsic.AddressAccountID,
		Extension:     extrinsic.DefaultExtraProvider,
	}
	Polkadot = Runtime{
		Name:          "polkadot",
		SS58Prefix:    0,
		TokenDecimals: 10,
		TokenSymbol:   "DOT",
		AddressFormat: extrinsic.AddressAccountID,
		Extension:     extrinsic.DefaultExtraProvider,
	}
	Westend = Runtime{
		Name:          "westend",
		SS58Prefix:    42,
		TokenDecimals: 12,
		TokenSymbol:   "WND",
		AddressFormat: extrinsic.AddressMultiID,
		Extension:     extrinsic.DefaultExtraProvider,
	}
)

var known = []Runtime{Kusama, Polkadot, Westend}

// Lookup returns the runtime with the given name.
func Lookup(name string) (Runtime, error) {
	for _, r := range known {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Runtime{}, fmt.Errorf("%w: %q", ErrUnknownRuntime, name)
}

// Address wraps id in this runtime's address format.
func (r Runtime) Address(id types.AccountID) extrinsic.Address {
	return extrinsic.NewAddress(r.AddressFormat, id)
}

// TxConfig fills in the runtime specific parts of a transaction config.
func TxConfig[A extrinsic.CallArgs](r Runtime, config extrinsic.TxConfig[A]) extrinsic.TxConfig[A] {
	config.Address.Format = r.AddressFormat
	if config.Extension == nil {
		config.Extension = r.Extension
	}
	return config
}
