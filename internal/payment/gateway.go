// Package payment abstracts the external payment provider. The
// reservation flow only needs three operations: creating an order for a
// booking's amount, verifying the signature a client returns after
// paying, and polling a payment's status. The concrete provider wire
// format stays behind the Gateway interface.
package payment

import "context"

// Status is the provider-reported state of a payment.
type Status string

// Payment statuses as surfaced to the booking flow.
const (
	StatusSucceeded  Status = "succeeded"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Order is a provider-side order created for a booking before the
// client pays. Ref is the provider's order identifier the client needs
// to complete checkout.
type Order struct {
	Ref         string `json:"order_ref"`
	AmountCents uint32 `json:"amount_cents"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Proof is what a client presents after completing checkout: the order
// it paid, the provider's payment reference and the signature binding
// the two together.
type Proof struct {
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// Gateway is the payment provider contract consumed by the reservation
// coordinator.
type Gateway interface {
	// CreateOrder registers an order for the given amount in minor
	// units and returns the provider's order reference.
	CreateOrder(ctx context.Context, amountCents uint32, currency, receipt string) (*Order, error)
	// VerifySignature reports whether the signature is a valid proof
	// that paymentRef settled orderRef.
	VerifySignature(orderRef, paymentRef, signature string) bool
	// RetrieveStatus polls the provider for a payment's current state.
	RetrieveStatus(ctx context.Context, paymentRef string) (Status, error)
}
