package txrequest

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"airgap/internal/codec"
	"airgap/internal/extrinsic"
	"airgap/internal/metadata"
	"airgap/internal/runtime"
	"airgap/internal/ss58"
)

// Request describes one transaction to sign.
type Request struct {
	Pallet string `yaml:"pallet"`
	Call   string `yaml:"call"`
	Args   Args   `yaml:"args"`
	// Nonce overrides the bundle's nonce.
	Nonce *uint32 `yaml:"nonce,omitempty"`
	// Tip in token units, e.g. "0.01".
	Tip string `yaml:"tip,omitempty"`
	// MortalPeriod in blocks; 0 makes the transaction immortal and nil
	// leaves the choice to the signer's configuration.
	MortalPeriod *uint64 `yaml:"mortal_period,omitempty"`
}

// Args holds the arguments of the calls the signer knows how to build.
// Raw, when set, is used verbatim for any call.
type Args struct {
	Dest   string `yaml:"dest,omitempty"`
	Amount string `yaml:"amount,omitempty"`
	Planck string `yaml:"planck,omitempty"`
	Remark string `yaml:"remark,omitempty"`
	Raw    string `yaml:"raw,omitempty"`
}

// LoadRequest reads a request file.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return ParseRequest(data)
}

// ParseRequest parses a YAML request.
func ParseRequest(data []byte) (*Request, error) {
	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	if r.Pallet == "" || r.Call == "" {
		return nil, fmt.Errorf("request needs a pallet and a call")
	}
	return &r, nil
}

// BuildCall resolves the call index and encodes the arguments.
func (r *Request) BuildCall(meta *metadata.Metadata, rt runtime.Runtime) (extrinsic.GenericCall[*extrinsic.RawArgs], error) {
	idx, err := meta.FindCallIndex(r.Pallet, r.Call)
	if err != nil {
		return extrinsic.GenericCall[*extrinsic.RawArgs]{}, err
	}

	var args extrinsic.RawArgs
	if r.Args.Raw != "" {
		args, err = codec.DecodeHex(r.Args.Raw)
		if err != nil {
			return extrinsic.GenericCall[*extrinsic.RawArgs]{}, fmt.Errorf("raw args: %w", err)
		}
		return extrinsic.NewCall(idx, &args), nil
	}

	typed, err := r.typedArgs(rt)
	if err != nil {
		return extrinsic.GenericCall[*extrinsic.RawArgs]{}, err
	}
	args, err = codec.Encode(typed)
	if err != nil {
		return extrinsic.GenericCall[*extrinsic.RawArgs]{}, fmt.Errorf("encoding %s.%s args: %w", r.Pallet, r.Call, err)
	}
	return extrinsic.NewCall(idx, &args), nil
}

func (r *Request) typedArgs(rt runtime.Runtime) (extrinsic.CallArgs, error) {
	switch r.Pallet + "." + r.Call {
	case "Balances.transfer", "Balances.transfer_keep_alive":
		dest, err := ss58.DecodeWithPrefix(r.Args.Dest, rt.SS58Prefix)
		if err != nil {
			return nil, fmt.Errorf("dest: %w", err)
		}
		value, err := r.Args.value(rt)
		if err != nil {
			return nil, err
		}
		if r.Call == "transfer" {
			return rt.NewTransfer(dest, value), nil
		}
		return rt.NewTransferKeepAlive(dest, value), nil
	case "System.remark":
		data := []byte(r.Args.Remark)
		if strings.HasPrefix(r.Args.Remark, "0x") {
			b, err := codec.DecodeHex(r.Args.Remark)
			if err != nil {
				return nil, fmt.Errorf("remark: %w", err)
			}
			data = b
		}
		return &runtime.Remark{Data: data}, nil
	}
	return nil, fmt.Errorf("no argument builder for %s.%s, use raw args", r.Pallet, r.Call)
}

func (a Args) value(rt runtime.Runtime) (extrinsic.Balance, error) {
	switch {
	case a.Planck != "" && a.Amount != "":
		return extrinsic.Balance{}, fmt.Errorf("amount and planck are mutually exclusive")
	case a.Planck != "":
		v, ok := new(big.Int).SetString(a.Planck, 10)
		if !ok || v.Sign() < 0 {
			return extrinsic.Balance{}, fmt.Errorf("invalid planck value %q", a.Planck)
		}
		return extrinsic.NewBalanceFromBig(v), nil
	case a.Amount != "":
		return ParseAmount(a.Amount, rt.TokenDecimals)
	}
	return extrinsic.Balance{}, fmt.Errorf("transfer needs an amount or planck value")
}

// ParseAmount converts a decimal token amount to planck.
func ParseAmount(amount string, decimals int32) (extrinsic.Balance, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return extrinsic.Balance{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return extrinsic.Balance{}, fmt.Errorf("amount %s is negative", amount)
	}
	planck := d.Shift(decimals)
	if !planck.IsInteger() {
		return extrinsic.Balance{}, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return extrinsic.NewBalanceFromBig(planck.BigInt()), nil
}

// FormatAmount renders planck as a decimal token amount.
func FormatAmount(b extrinsic.Balance, decimals int32) string {
	return decimal.NewFromBigInt(b.Int(), -decimals).String()
}

// Mortality picks the transaction's mortality. The request's period wins
// over the default; a zero period or immortal default yields an immortal era.
func (r *Request) Mortality(b *Bundle, defaultPeriod uint64, immortal bool) (extrinsic.Mortality, error) {
	period := defaultPeriod
	if immortal {
		period = 0
	}
	if r.MortalPeriod != nil {
		period = *r.MortalPeriod
	}
	if period == 0 {
		return extrinsic.Immortal(), nil
	}
	checkpoint, err := b.Checkpoint()
	if err != nil {
		return extrinsic.Mortality{}, err
	}
	return extrinsic.Mortal(period, b.CheckpointNumber, checkpoint), nil
}

// TipBalance parses the tip, defaulting to zero.
func (r *Request) TipBalance(rt runtime.Runtime) (extrinsic.Balance, error) {
	if r.Tip == "" {
		return extrinsic.NewBalance(0), nil
	}
	return ParseAmount(r.Tip, rt.TokenDecimals)
}

// ResolveNonce picks the request's nonce, then the bundle's.
func (r *Request) ResolveNonce(b *Bundle) (uint32, error) {
	switch {
	case r.Nonce != nil:
		return *r.Nonce, nil
	case b.Nonce != nil:
		return *b.Nonce, nil
	}
	return 0, fmt.Errorf("no nonce in request or bundle")
}
