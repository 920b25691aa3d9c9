package policies

import (
	"context"
	"errors"
)

var (
	ErrPaymentMissing = errors.New("payments: payment reference missing")
	ErrBadSignature   = errors.New("payments: signature verification failed")
)

// PaymentConfirmation is the signal an external processor sends once a
// checkout completed. The engine never talks to the processor itself; it only
// checks the signature against the shared secret.
type PaymentConfirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentVerifier authenticates a processor confirmation. A failed check is
// fatal for the request: no state may change before verification passes.
type PaymentVerifier interface {
	Verify(ctx context.Context, confirmation PaymentConfirmation) error
}
