package extrinsic

import "errors"

var (
	// ErrInvalidEra is returned when a mortal era decodes to an impossible period or phase.
	ErrInvalidEra = errors.New("invalid era")
	// ErrInvalidTransactionVersion is returned when the envelope version is not 4.
	ErrInvalidTransactionVersion = errors.New("invalid transaction version")
	// ErrSigningFailed wraps any failure of the signing capability.
	ErrSigningFailed = errors.New("signing failed")
	// ErrUnsupportedAddress is returned for address encodings this package cannot represent.
	ErrUnsupportedAddress = errors.New("unsupported address")
	// ErrInvalidSignature is returned for signatures with an unknown tag or wrong length.
	ErrInvalidSignature = errors.New("invalid signature")
)
