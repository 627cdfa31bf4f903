package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"

	"airgap/internal/codec"
)

// Encode writes modules as a version 12 metadata blob carrying only names,
// indices and calls. Decode(Encode(m)) yields the same table; storage,
// events, constants and errors are left empty.
func Encode(modules []Module) ([]byte, error) {
	var buf bytes.Buffer
	var prefix [5]byte
	binary.LittleEndian.PutUint32(prefix[:4], MagicNumber)
	prefix[4] = Version
	buf.Write(prefix[:])

	enc := metaEncoder{enc: *scale.NewEncoder(&buf)}
	enc.compact(len(modules))
	for _, mod := range modules {
		enc.text(mod.Name)
		enc.u8(0) // storage: None
		if len(mod.Calls) > 0 {
			enc.u8(1)
			enc.compact(len(mod.Calls))
			for _, call := range mod.Calls {
				enc.text(call)
				enc.compact(0) // arguments
				enc.compact(0) // documentation
			}
		} else {
			enc.u8(0)
		}
		enc.u8(0)      // events: None
		enc.compact(0) // constants
		enc.compact(0) // errors
		enc.u8(mod.Index)
	}
	enc.u8(4)      // extrinsic format version
	enc.compact(0) // signed extensions
	if enc.err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", enc.err)
	}
	return buf.Bytes(), nil
}

type metaEncoder struct {
	enc scale.Encoder
	err error
}

func (m *metaEncoder) u8(b byte) {
	if m.err == nil {
		m.err = m.enc.PushByte(b)
	}
}

func (m *metaEncoder) compact(n int) {
	if m.err == nil {
		m.err = codec.WriteCompact(m.enc, uint64(n))
	}
}

func (m *metaEncoder) text(s string) {
	m.compact(len(s))
	if m.err == nil {
		m.err = m.enc.Write([]byte(s))
	}
}
