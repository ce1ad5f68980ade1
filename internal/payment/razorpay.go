package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway talks to the Razorpay REST API. Signature checks are
// pure HMAC and never hit the network.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// NewRazorpayGateway builds a gateway authenticated with the given API
// key pair.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder registers an order with Razorpay. Amount is in the
// currency's minor unit, which matches Razorpay's own convention.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountCents uint32, currency, receipt string) (*Order, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":          amountCents,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment: create order: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID       string `json:"id"`
		Amount   uint32 `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return &Order{
		Ref:         body.ID,
		AmountCents: body.Amount,
		Currency:    body.Currency,
		Receipt:     body.Receipt,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay's checkout
// hands back to the client. The signed message is "orderRef|paymentRef"
// keyed with the API secret.
func (g *RazorpayGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// RetrieveStatus fetches a payment and maps Razorpay's state machine
// onto the coarse Status values the booking flow cares about.
func (g *RazorpayGateway) RetrieveStatus(ctx context.Context, paymentRef string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentRef, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment: retrieve payment: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	switch body.Status {
	case "captured", "authorized":
		return StatusSucceeded, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusProcessing, nil
	}
}
