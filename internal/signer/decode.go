package signer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"airgap/internal/codec"
	"airgap/internal/extrinsic"
	"airgap/internal/metadata"
	"airgap/internal/metrics"
	"airgap/internal/runtime"
	"airgap/internal/ss58"
	"airgap/internal/txrequest"
)

// Decoded is a human readable view of an extrinsic.
type Decoded struct {
	Hash   string
	Index  string
	Pallet string
	Call   string
	// Args holds named arguments for calls the signer knows, otherwise
	// "raw" with the hex encoded arguments.
	Args   map[string]string
	Signed bool
	Signer string
	Scheme string
	Nonce  uint32
	Tip    string
	Era    string
}

// Decode parses a hex extrinsic. With meta the call index is resolved to
// pallet and call names; without it only the index is reported.
func (s *Service) Decode(extrinsicHex string, meta *metadata.Metadata) (result *Decoded, err error) {
	defer func() { s.metrics.Observe(metrics.OpDecode, err) }()

	data, err := codec.DecodeHex(extrinsicHex)
	if err != nil {
		return nil, fmt.Errorf("extrinsic: %w", err)
	}

	rt := s.opts.Runtime
	var args extrinsic.RawArgs
	xt, err := extrinsic.DecodeUncheckedExtrinsic(data, rt.AddressFormat, &args)
	if err != nil {
		return nil, err
	}
	hash := codec.Blake2_256(data)

	out := &Decoded{
		Hash:   codec.EncodeHex(hash[:]),
		Index:  xt.Call.Index.String(),
		Args:   map[string]string{"raw": codec.EncodeHex(args)},
		Signed: xt.IsSigned(),
	}

	if meta != nil {
		out.Pallet, out.Call, err = meta.Lookup(xt.Call.Index)
		if err != nil {
			return nil, err
		}
		if named, err := s.namedArgs(out.Pallet, out.Call, args); err == nil && named != nil {
			out.Args = named
		} else if err != nil {
			s.log.WithError(err).WithField("call", out.Pallet+"."+out.Call).Warn("Arguments do not match the known layout")
		}
	}

	if sig := xt.Signature; sig != nil {
		out.Signer, err = ss58.Encode(sig.Address.ID(), rt.SS58Prefix)
		if err != nil {
			return nil, err
		}
		out.Scheme = sig.Signature.Scheme.String()
		out.Nonce = sig.Extra.Nonce
		out.Tip = txrequest.FormatAmount(sig.Extra.Tip, rt.TokenDecimals)
		out.Era = sig.Extra.Era.String()
	}

	s.log.WithFields(logrus.Fields{
		"index":  out.Index,
		"signed": out.Signed,
	}).Debug("Decoded extrinsic")
	return out, nil
}

func (s *Service) namedArgs(pallet, call string, raw extrinsic.RawArgs) (map[string]string, error) {
	rt := s.opts.Runtime
	switch pallet + "." + call {
	case "Balances.transfer", "Balances.transfer_keep_alive":
		t := rt.EmptyTransfer()
		if err := codec.DecodeExact(raw, t); err != nil {
			return nil, err
		}
		dest, err := ss58.Encode(t.Dest.ID(), rt.SS58Prefix)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"dest":   dest,
			"planck": t.Value.String(),
			"amount": txrequest.FormatAmount(t.Value, rt.TokenDecimals) + " " + rt.TokenSymbol,
		}, nil
	case "System.remark":
		var r runtime.Remark
		if err := codec.DecodeExact(raw, &r); err != nil {
			return nil, err
		}
		return map[string]string{"remark": codec.EncodeHex(r.Data)}, nil
	}
	return nil, nil
}
