package apperror

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input rejected before any store access.
// Nothing is persisted and no sequence number is consumed when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation builds a ValidationError from a format string
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ReferenceNotFoundError reports a customer or product id that does not
// exist at validation time. Raised before the sequence number is drawn.
type ReferenceNotFoundError struct {
	Entity string // "customer" or "product"
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// TransientStoreError reports an unreachable or timed-out store. Retryable
// by the caller only — the core never retries. If it occurs after the
// sequence was incremented but before the invoice insert committed, the
// sequence value is permanently lost; that is accepted behavior.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// Transient wraps a store failure with the operation that hit it
func Transient(op string, err error) *TransientStoreError {
	return &TransientStoreError{Op: op, Err: err}
}

// DuplicateInvoiceNumberError means the per-day counter serialization
// guarantee was broken. Structurally impossible under correct operation;
// when the store reports it anyway it must fail loudly and never be
// masked by a silent retry.
type DuplicateInvoiceNumberError struct {
	InvoiceNo string
}

func (e *DuplicateInvoiceNumberError) Error() string {
	return fmt.Sprintf("duplicate invoice number %s: counter serialization violated", e.InvoiceNo)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsReferenceNotFound reports whether err is a ReferenceNotFoundError
func IsReferenceNotFound(err error) bool {
	var target *ReferenceNotFoundError
	return errors.As(err, &target)
}

// IsTransient reports whether err is a TransientStoreError
func IsTransient(err error) bool {
	var target *TransientStoreError
	return errors.As(err, &target)
}

// IsDuplicateInvoiceNumber reports whether err is a DuplicateInvoiceNumberError
func IsDuplicateInvoiceNumber(err error) bool {
	var target *DuplicateInvoiceNumberError
	return errors.As(err, &target)
}
