package extrinsic

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"airgap/internal/codec"
)

const (
	minEraPeriod = 4
	maxEraPeriod = 1 << 16
)

// Era is the validity window of a transaction. The zero value is immortal.
type Era struct {
	IsMortal bool
	// Period is a power of two in [4, 65536].
	Period uint64
	// Phase is the offset of the birth block within the period, quantized.
	Phase uint64
}

// ImmortalEra returns an era that never expires.
func ImmortalEra() Era {
	return Era{}
}

// MortalEra builds an era that lives for roughly period blocks starting at
// current. The period is rounded up to a power of two and clamped to
// [4, 65536]; the phase is quantized so that it fits the 12 bits available
// on the wire.
func MortalEra(period, current uint64) Era {
	p := nextPowerOfTwo(period)
	if p < minEraPeriod {
		p = minEraPeriod
	}
	if p > maxEraPeriod {
		p = maxEraPeriod
	}
	phase := current % p
	q := quantizeFactor(p)
	return Era{IsMortal: true, Period: p, Phase: phase / q * q}
}

// nextPowerOfTwo returns 1<<16 for zero and on overflow.
func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return maxEraPeriod
	}
	shift := bits.Len64(v - 1)
	if shift >= 64 {
		return maxEraPeriod
	}
	return 1 << shift
}

func quantizeFactor(period uint64) uint64 {
	if q := period >> 12; q > 1 {
		return q
	}
	return 1
}

// IsImmortal reports whether the era never expires.
func (e Era) IsImmortal() bool {
	return !e.IsMortal
}

// Birth returns the first block in which a transaction with this era is
// valid, given the current block number.
func (e Era) Birth(current uint64) uint64 {
	if !e.IsMortal {
		return 0
	}
	// (max(current, phase) - phase) / period * period + phase
	base := current
	if base < e.Phase {
		base = e.Phase
	}
	return (base-e.Phase)/e.Period*e.Period + e.Phase
}

// Death returns the first block in which the transaction is no longer valid.
func (e Era) Death(current uint64) uint64 {
	if !e.IsMortal {
		return ^uint64(0)
	}
	return e.Birth(current) + e.Period
}

// Validate reports whether a mortal era has a power-of-two period in
// [4, 65536] and a phase below it.
func (e Era) Validate() error {
	if !e.IsMortal {
		return nil
	}
	if e.Period < minEraPeriod || e.Period > maxEraPeriod || bits.OnesCount64(e.Period) != 1 || e.Phase >= e.Period {
		return fmt.Errorf("%w: period %d phase %d", ErrInvalidEra, e.Period, e.Phase)
	}
	return nil
}

func (e Era) Encode(encoder scale.Encoder) error {
	if !e.IsMortal {
		return encoder.PushByte(0)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	low := bits.TrailingZeros64(e.Period) - 1
	if low < 1 {
		low = 1
	}
	if low > 15 {
		low = 15
	}
	encoded := uint16(low) | uint16(e.Phase/quantizeFactor(e.Period))<<4
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], encoded)
	return encoder.Write(b[:])
}

func (e *Era) Decode(decoder scale.Decoder) error {
	first, err := codec.ReadByte(decoder)
	if err != nil {
		return fmt.Errorf("decoding era: %w", err)
	}
	if first == 0 {
		*e = ImmortalEra()
		return nil
	}
	second, err := codec.ReadByte(decoder)
	if err != nil {
		return fmt.Errorf("decoding era: %w", err)
	}
	encoded := uint64(first) | uint64(second)<<8
	period := uint64(2) << (encoded % 16)
	phase := (encoded >> 4) * quantizeFactor(period)
	if period < minEraPeriod || phase >= period {
		return fmt.Errorf("%w: period %d phase %d", ErrInvalidEra, period, phase)
	}
	*e = Era{IsMortal: true, Period: period, Phase: phase}
	return nil
}

func (e Era) String() string {
	if !e.IsMortal {
		return "immortal"
	}
	return fmt.Sprintf("mortal(period=%d, phase=%d)", e.Period, e.Phase)
}

// ExtrinsicEra converts to the RPC client's representation.
func (e Era) ExtrinsicEra() (types.ExtrinsicEra, error) {
	if !e.IsMortal {
		return types.ExtrinsicEra{IsImmortalEra: true}, nil
	}
	b, err := codec.Encode(e)
	if err != nil {
		return types.ExtrinsicEra{}, err
	}
	return types.ExtrinsicEra{
		IsMortalEra: true,
		AsMortalEra: types.MortalEra{First: b[0], Second: b[1]},
	}, nil
}

// MortalConfig describes a mortal window anchored at a checkpoint block.
type MortalConfig struct {
	// Period is the requested validity length in blocks before quantization.
	Period uint64
	// CheckpointNumber is the block the window is anchored at.
	CheckpointNumber uint64
	// CheckpointHash is the hash of that block.
	CheckpointHash types.Hash
}

// Mortality is either immortal (nil Config) or mortal.
type Mortality struct {
	Config *MortalConfig
}

// Immortal returns a mortality that never expires.
func Immortal() Mortality {
	return Mortality{}
}

// Mortal returns a mortality anchored at the given checkpoint.
func Mortal(period, checkpointNumber uint64, checkpointHash types.Hash) Mortality {
	return Mortality{Config: &MortalConfig{
		Period:           period,
		CheckpointNumber: checkpointNumber,
		CheckpointHash:   checkpointHash,
	}}
}

// IsImmortal reports whether no checkpoint is set.
func (m Mortality) IsImmortal() bool {
	return m.Config == nil
}

// Era returns the era and, for mortal windows, the checkpoint hash.
func (m Mortality) Era() (Era, *types.Hash) {
	if m.Config == nil {
		return ImmortalEra(), nil
	}
	h := m.Config.CheckpointHash
	return MortalEra(m.Config.Period, m.Config.CheckpointNumber), &h
}
