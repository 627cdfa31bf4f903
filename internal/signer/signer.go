// Package signer turns transaction requests and chain bundles into signed
// extrinsics without touching the network.
package signer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/sirupsen/logrus"

	"airgap/internal/codec"
	"airgap/internal/crypto"
	"airgap/internal/extrinsic"
	"airgap/internal/metrics"
	"airgap/internal/runtime"
	"airgap/internal/ss58"
	"airgap/internal/txrequest"
)

var (
	ErrRuntimeMismatch = errors.New("bundle runtime does not match")
	ErrAccountMismatch = errors.New("signer does not match bundle account")
	ErrBadSignature    = errors.New("signature does not verify")
)

// Options controls transaction defaults the request may leave out.
type Options struct {
	Runtime      runtime.Runtime
	MortalPeriod uint64
	Immortal     bool
}

// Service builds payloads and extrinsics for one runtime.
type Service struct {
	opts    Options
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// New creates a signing service
func New(opts Options, m *metrics.Metrics, log logrus.FieldLogger) *Service {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Service{
		opts:    opts,
		metrics: m,
		log:     log.WithField("runtime", opts.Runtime.Name),
	}
}

// Signed is a finished extrinsic.
type Signed struct {
	Hex    string
	Hash   string
	Signer string
	Nonce  uint32
	Era    string
}

// Payload is what an external signer must sign.
type Payload struct {
	// SigningBytes is hex of the bytes handed to the signer, already hashed
	// when the full payload is longer than 256 bytes.
	SigningBytes string
	Hashed       bool
	Length       int
}

// Sign builds and signs the request with signer.
func (s *Service) Sign(req *txrequest.Request, bundle *txrequest.Bundle, signer crypto.Signer) (result *Signed, err error) {
	defer func() { s.metrics.Observe(metrics.OpSign, err) }()

	account := signer.AccountID()
	if err := s.checkAccount(bundle, account); err != nil {
		return nil, err
	}
	tx, err := s.prepare(req, bundle, account)
	if err != nil {
		return nil, err
	}

	payload := tx.SignedPayload()
	msg, err := s.signingBytes(payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sig, err := payload.Sign(signer)
	s.metrics.SignLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if !signer.Verify(msg, sig.Bytes) {
		return nil, fmt.Errorf("%w: fresh %s signature rejected by its own key", ErrBadSignature, sig.Scheme)
	}

	xt, err := tx.TxFromParts(sig, payload)
	if err != nil {
		return nil, err
	}
	return s.finish(xt)
}

// Payload returns the bytes an external signer must sign for account.
func (s *Service) Payload(req *txrequest.Request, bundle *txrequest.Bundle, account string) (result *Payload, err error) {
	defer func() { s.metrics.Observe(metrics.OpPayload, err) }()

	id, err := s.parseAccount(bundle, account)
	if err != nil {
		return nil, err
	}
	tx, err := s.prepare(req, bundle, id)
	if err != nil {
		return nil, err
	}

	raw, err := tx.SignedPayload().Bytes()
	if err != nil {
		return nil, err
	}
	msg, err := s.signingBytes(tx.SignedPayload())
	if err != nil {
		return nil, err
	}
	return &Payload{
		SigningBytes: codec.EncodeHex(msg),
		Hashed:       len(raw) > extrinsic.MaxUnhashedPayload,
		Length:       len(raw),
	}, nil
}

// Assemble combines the request with a signature made elsewhere over the
// bytes Payload returned. Ed25519 and sr25519 signatures are checked against
// the account; ecdsa accounts are hashes of the key and cannot be checked.
func (s *Service) Assemble(req *txrequest.Request, bundle *txrequest.Bundle, account string, scheme crypto.Scheme, signature string) (result *Signed, err error) {
	defer func() { s.metrics.Observe(metrics.OpAssemble, err) }()

	id, err := s.parseAccount(bundle, account)
	if err != nil {
		return nil, err
	}
	rawSig, err := codec.DecodeHex(signature)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	sig, err := extrinsic.NewMultiSignature(scheme, rawSig)
	if err != nil {
		return nil, err
	}

	tx, err := s.prepare(req, bundle, id)
	if err != nil {
		return nil, err
	}
	payload := tx.SignedPayload()

	if scheme != crypto.Ecdsa {
		msg, err := s.signingBytes(payload)
		if err != nil {
			return nil, err
		}
		if !crypto.Verify(scheme, msg, sig.Bytes, id[:]) {
			return nil, fmt.Errorf("%w for %s", ErrBadSignature, account)
		}
	} else {
		s.log.WithField("account", account).Warn("Ecdsa signature not verified against account")
	}

	xt, err := tx.TxFromParts(sig, payload)
	if err != nil {
		return nil, err
	}
	return s.finish(xt)
}

func (s *Service) prepare(req *txrequest.Request, bundle *txrequest.Bundle, account types.AccountID) (*extrinsic.Tx[*extrinsic.RawArgs], error) {
	rt := s.opts.Runtime
	if !strings.EqualFold(bundle.Runtime, rt.Name) {
		return nil, fmt.Errorf("%w: bundle is for %q, signing for %q", ErrRuntimeMismatch, bundle.Runtime, rt.Name)
	}

	meta, err := bundle.DecodeMetadata()
	if err != nil {
		return nil, err
	}
	call, err := req.BuildCall(meta, rt)
	if err != nil {
		return nil, err
	}
	nonce, err := req.ResolveNonce(bundle)
	if err != nil {
		return nil, err
	}
	mortality, err := req.Mortality(bundle, s.opts.MortalPeriod, s.opts.Immortal)
	if err != nil {
		return nil, err
	}
	tip, err := req.TipBalance(rt)
	if err != nil {
		return nil, err
	}
	genesis, err := bundle.Genesis()
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"call":     req.Pallet + "." + req.Call,
		"index":    call.Index.String(),
		"nonce":    nonce,
		"immortal": mortality.IsImmortal(),
	}).Debug("Prepared transaction")

	return extrinsic.NewTx(runtime.TxConfig(rt, extrinsic.TxConfig[*extrinsic.RawArgs]{
		Call:        call,
		Address:     rt.Address(account),
		Nonce:       nonce,
		SpecVersion: bundle.SpecVersion,
		TxVersion:   bundle.TransactionVersion,
		GenesisHash: genesis,
		Mortality:   mortality,
		Tip:         tip,
	})), nil
}

func (s *Service) signingBytes(payload extrinsic.SignedPayload) ([]byte, error) {
	raw, err := payload.Bytes()
	if err != nil {
		return nil, err
	}
	msg, err := payload.SigningBytes()
	if err != nil {
		return nil, err
	}
	s.metrics.ObservePayload(len(raw), len(raw) > extrinsic.MaxUnhashedPayload)
	return msg, nil
}

func (s *Service) finish(xt extrinsic.UncheckedExtrinsic[*extrinsic.RawArgs]) (*Signed, error) {
	hexed, err := xt.Hex()
	if err != nil {
		return nil, err
	}
	hash, err := xt.Hash()
	if err != nil {
		return nil, err
	}
	signer, err := ss58.Encode(xt.Signature.Address.ID(), s.opts.Runtime.SS58Prefix)
	if err != nil {
		return nil, err
	}

	out := &Signed{
		Hex:    hexed,
		Hash:   codec.EncodeHex(hash[:]),
		Signer: signer,
		Nonce:  xt.Signature.Extra.Nonce,
		Era:    xt.Signature.Extra.Era.String(),
	}
	s.log.WithFields(logrus.Fields{
		"hash":   out.Hash,
		"signer": out.Signer,
		"nonce":  out.Nonce,
		"era":    out.Era,
	}).Info("Signed extrinsic")
	return out, nil
}

func (s *Service) parseAccount(bundle *txrequest.Bundle, account string) (types.AccountID, error) {
	if account == "" {
		account = bundle.Account
	}
	if account == "" {
		return types.AccountID{}, fmt.Errorf("no signing account given and none in bundle")
	}
	id, err := ss58.DecodeWithPrefix(account, s.opts.Runtime.SS58Prefix)
	if err != nil {
		return types.AccountID{}, fmt.Errorf("account: %w", err)
	}
	if err := s.checkAccount(bundle, id); err != nil {
		return types.AccountID{}, err
	}
	return id, nil
}

// checkAccount rejects a signer other than the account whose nonce the
// bundle carries.
func (s *Service) checkAccount(bundle *txrequest.Bundle, id types.AccountID) error {
	if bundle.Account == "" {
		return nil
	}
	want, err := ss58.DecodeWithPrefix(bundle.Account, s.opts.Runtime.SS58Prefix)
	if err != nil {
		return fmt.Errorf("bundle account: %w", err)
	}
	if want != id {
		return fmt.Errorf("%w: bundle nonce belongs to %s", ErrAccountMismatch, bundle.Account)
	}
	return nil
}
