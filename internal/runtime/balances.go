package runtime

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/extrinsic"
)

const balancesPallet = "Balances"

// Transfer is balances.transfer: move Value from the signer to Dest.
type Transfer struct {
	Dest  extrinsic.Address
	Value extrinsic.Balance
}

// NewTransfer builds a transfer to dest in this runtime's address format.
func (r Runtime) NewTransfer(dest types.AccountID, value extrinsic.Balance) *Transfer {
	return &Transfer{Dest: r.Address(dest), Value: value}
}

// EmptyTransfer returns a transfer ready to be decoded into.
func (r Runtime) EmptyTransfer() *Transfer {
	return &Transfer{Dest: extrinsic.Address{Format: r.AddressFormat}}
}

func (t Transfer) Pallet() string { return balancesPallet }
func (t Transfer) Call() string   { return "transfer" }

func (t Transfer) Encode(encoder scale.Encoder) error {
	if err := t.Dest.Encode(encoder); err != nil {
		return fmt.Errorf("encoding transfer dest: %w", err)
	}
	if err := t.Value.Encode(encoder); err != nil {
		return fmt.Errorf("encoding transfer value: %w", err)
	}
	return nil
}

func (t *Transfer) Decode(decoder scale.Decoder) error {
	if err := t.Dest.Decode(decoder); err != nil {
		return fmt.Errorf("decoding transfer dest: %w", err)
	}
	if err := t.Value.Decode(decoder); err != nil {
		return fmt.Errorf("decoding transfer value: %w", err)
	}
	return nil
}

// TransferKeepAlive is balances.transfer_keep_alive, which refuses to reap
// the sender's account.
type TransferKeepAlive struct {
	Transfer
}

// NewTransferKeepAlive builds a keep-alive transfer to dest.
func (r Runtime) NewTransferKeepAlive(dest types.AccountID, value extrinsic.Balance) *TransferKeepAlive {
	return &TransferKeepAlive{Transfer: *r.NewTransfer(dest, value)}
}

func (t TransferKeepAlive) Call() string { return "transfer_keep_alive" }
