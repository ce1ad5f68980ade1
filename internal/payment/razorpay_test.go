package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "topsecret")

	good := sign("topsecret", "order_123", "pay_456")
	assert.True(t, g.VerifySignature("order_123", "pay_456", good))

	// Signature computed with the wrong secret must not verify.
	forged := sign("othersecret", "order_123", "pay_456")
	assert.False(t, g.VerifySignature("order_123", "pay_456", forged))

	// A valid signature is bound to its exact order/payment pair.
	assert.False(t, g.VerifySignature("order_999", "pay_456", good))
	assert.False(t, g.VerifySignature("order_123", "pay_999", good))
	assert.False(t, g.VerifySignature("order_123", "pay_456", ""))
}
