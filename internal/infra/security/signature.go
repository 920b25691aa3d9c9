package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"homelet/internal/app/policies"
)

var ErrSecretMissing = errors.New("security: payment secret not configured")

// HMACPaymentVerifier authenticates processor confirmations with
// HMAC-SHA256(secret, order_id + "|" + payment_id).
type HMACPaymentVerifier struct {
	Secret []byte
}

func (v HMACPaymentVerifier) Verify(ctx context.Context, c policies.PaymentConfirmation) error {
	if len(v.Secret) == 0 {
		return ErrSecretMissing
	}
	if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return policies.ErrPaymentMissing
	}
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write([]byte(c.OrderID + "|" + c.PaymentID))
	expected := mac.Sum(nil)
	provided, err := hex.DecodeString(c.Signature)
	if err != nil {
		return policies.ErrBadSignature
	}
	if !hmac.Equal(expected, provided) {
		return policies.ErrBadSignature
	}
	return nil
}

// Sign produces the signature a processor would attach; used by fixtures and
// tests.
func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ policies.PaymentVerifier = HMACPaymentVerifier{}
