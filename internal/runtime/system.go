package runtime

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"airgap/internal/codec"
)

// maxRemark is the relay chain block length limit.
const maxRemark = 5 * 1024 * 1024

// Remark is system.remark: arbitrary bytes recorded on chain.
type Remark struct {
	Data []byte
}

func (r Remark) Pallet() string { return "System" }
func (r Remark) Call() string   { return "remark" }

func (r Remark) Encode(encoder scale.Encoder) error {
	if err := codec.WriteCompact(encoder, uint64(len(r.Data))); err != nil {
		return fmt.Errorf("encoding remark length: %w", err)
	}
	return encoder.Write(r.Data)
}

func (r *Remark) Decode(decoder scale.Decoder) error {
	n, err := codec.ReadCompactUint64(decoder, maxRemark)
	if err != nil {
		return fmt.Errorf("decoding remark length: %w", err)
	}
	data := make([]byte, n)
	if err := codec.ReadFull(decoder, data); err != nil {
		return fmt.Errorf("decoding remark: %w", err)
	}
	r.Data = data
	return nil
}
