// Package metadata turns runtime metadata into the call index table the
// offline builder needs.
package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/codec"
	"airgap/internal/extrinsic"
)

const (
	// MagicNumber is "meta" read as a little-endian u32.
	MagicNumber uint32 = 0x6174656d
	// Version is the only metadata schema understood.
	Version uint8 = 12

	maxCallsPerModule = 256
)

var (
	ErrModuleNotFound             = errors.New("module not found")
	ErrCallNotFound               = errors.New("call not found")
	ErrInvalidMetadataPrefix      = errors.New("invalid metadata prefix")
	ErrUnsupportedMetadataVersion = errors.New("unsupported metadata version")
	ErrCallIndexOverflow          = errors.New("call index overflow")
	ErrDuplicateModule            = errors.New("duplicate module")
	ErrDuplicateModuleIndex       = errors.New("duplicate module index")
)

// Module is one pallet that declares calls, in metadata order.
type Module struct {
	Name  string
	Index uint8
	Calls []string
}

// Metadata maps pallet and call names to call indices. It is immutable once
// built and safe for concurrent use.
type Metadata struct {
	modules []Module
	calls   []map[string]uint8
	byName  map[string]int
	byIndex map[uint8]int
}

// New builds the table. Call indices are positions in each module's call list.
func New(modules []Module) (*Metadata, error) {
	m := &Metadata{
		modules: make([]Module, 0, len(modules)),
		calls:   make([]map[string]uint8, 0, len(modules)),
		byName:  make(map[string]int, len(modules)),
		byIndex: make(map[uint8]int, len(modules)),
	}
	for _, mod := range modules {
		if _, ok := m.byName[mod.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, mod.Name)
		}
		if prev, ok := m.byIndex[mod.Index]; ok {
			return nil, fmt.Errorf("%w: %s and %s both use %d",
				ErrDuplicateModuleIndex, m.modules[prev].Name, mod.Name, mod.Index)
		}
		if len(mod.Calls) > maxCallsPerModule {
			return nil, fmt.Errorf("%w: %s declares %d calls", ErrCallIndexOverflow, mod.Name, len(mod.Calls))
		}
		calls := make(map[string]uint8, len(mod.Calls))
		for i, name := range mod.Calls {
			if _, ok := calls[name]; !ok {
				calls[name] = uint8(i)
			}
		}
		m.byName[mod.Name] = len(m.modules)
		m.byIndex[mod.Index] = len(m.modules)
		m.modules = append(m.modules, Module{
			Name:  mod.Name,
			Index: mod.Index,
			Calls: append([]string(nil), mod.Calls...),
		})
		m.calls = append(m.calls, calls)
	}
	return m, nil
}

// Decode parses a raw metadata blob: the magic number, the version byte and
// a version 12 body. Modules without calls are left out of the table.
func Decode(raw []byte) (*Metadata, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMetadataPrefix, len(raw))
	}
	if magic := binary.LittleEndian.Uint32(raw[:4]); magic != MagicNumber {
		return nil, fmt.Errorf("%w: %#08x", ErrInvalidMetadataPrefix, magic)
	}
	if raw[4] != Version {
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedMetadataVersion, raw[4])
	}

	var meta types.MetadataV12
	r := bytes.NewReader(raw[5:])
	if err := scale.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding metadata v%d: %w", Version, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after metadata", codec.ErrDecodeTrailingBytes, r.Len())
	}

	modules := make([]Module, 0, len(meta.Modules))
	for _, mod := range meta.Modules {
		if !mod.HasCalls {
			continue
		}
		calls := make([]string, len(mod.Calls))
		for i, call := range mod.Calls {
			calls[i] = string(call.Name)
		}
		modules = append(modules, Module{
			Name:  string(mod.Name),
			Index: uint8(mod.Index),
			Calls: calls,
		})
	}
	return New(modules)
}

// DecodeHex is Decode for 0x-prefixed hex, as returned by state_getMetadata.
func DecodeHex(s string) (*Metadata, error) {
	raw, err := codec.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata hex: %w", err)
	}
	return Decode(raw)
}

// FindCallIndex resolves a pallet and call name by exact match.
func (m *Metadata) FindCallIndex(pallet, call string) (extrinsic.CallIndex, error) {
	pos, ok := m.byName[pallet]
	if !ok {
		return extrinsic.CallIndex{}, fmt.Errorf("%w: %s", ErrModuleNotFound, pallet)
	}
	idx, ok := m.calls[pos][call]
	if !ok {
		return extrinsic.CallIndex{}, fmt.Errorf("%w: %s.%s", ErrCallNotFound, pallet, call)
	}
	return extrinsic.CallIndex{Module: m.modules[pos].Index, Call: idx}, nil
}

// CallIndexFor resolves the index of a call that knows its own names.
func (m *Metadata) CallIndexFor(c extrinsic.NamedCall) (extrinsic.CallIndex, error) {
	return m.FindCallIndex(c.Pallet(), c.Call())
}

// Lookup is the inverse of FindCallIndex.
func (m *Metadata) Lookup(index extrinsic.CallIndex) (pallet, call string, err error) {
	pos, ok := m.byIndex[index.Module]
	if !ok {
		return "", "", fmt.Errorf("%w: index %d", ErrModuleNotFound, index.Module)
	}
	mod := m.modules[pos]
	if int(index.Call) >= len(mod.Calls) {
		return "", "", fmt.Errorf("%w: %s call %d", ErrCallNotFound, mod.Name, index.Call)
	}
	return mod.Name, mod.Calls[index.Call], nil
}

// Modules returns the table in metadata order.
func (m *Metadata) Modules() []Module {
	out := make([]Module, len(m.modules))
	for i, mod := range m.modules {
		out[i] = Module{Name: mod.Name, Index: mod.Index, Calls: append([]string(nil), mod.Calls...)}
	}
	return out
}
