package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned by the caller.
	ErrNotFound = stderrors.New("not found")
	// ErrDecryption matches every *DecryptionError.
	ErrDecryption = stderrors.New("decryption failed")
	// ErrStorage matches every *StorageError.
	ErrStorage = stderrors.New("storage failure")
)

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// FetchErrorKind classifies upstream price feed failures.
type FetchErrorKind string

const (
	// FetchTransport covers network errors and non-2xx responses.
	FetchTransport FetchErrorKind = "transport"
	// FetchNoData covers well-formed exchanges that carried no usable price.
	FetchNoData FetchErrorKind = "no_data"
)

// FetchError is the only error type a price feed returns.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s fetch %s for %s", e.Source, e.Kind, e.Symbol)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network or HTTP status failure.
func NewTransportError(source, symbol string, err error) *FetchError {
	return &FetchError{Kind: FetchTransport, Source: source, Symbol: symbol, Err: err}
}

// NewNoDataError reports a response that did not contain a usable price.
func NewNoDataError(source, symbol string, err error) *FetchError {
	return &FetchError{Kind: FetchNoData, Source: source, Symbol: symbol, Err: err}
}

// IsTransport reports whether err is a transport-level FetchError.
func IsTransport(err error) bool {
	var fe *FetchError
	return stderrors.As(err, &fe) && fe.Kind == FetchTransport
}

// IsNoData reports whether err is a no-data FetchError.
func IsNoData(err error) bool {
	var fe *FetchError
	return stderrors.As(err, &fe) && fe.Kind == FetchNoData
}

// DecryptionError is returned for malformed, foreign or tampered ciphertext.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	if e.Err == nil {
		return ErrDecryption.Error()
	}
	return ErrDecryption.Error() + ": " + e.Err.Error()
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryption
}

// StorageError wraps a persistence failure together with the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError returns nil when err is nil so repositories can wrap unconditionally.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
