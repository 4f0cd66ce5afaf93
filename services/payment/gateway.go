package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Gateway is the payment processor contract this subsystem needs:
// order creation plus signed payment confirmation.
type Gateway interface {
	CreateOrder(amount uint, currency, receipt string) (string, error)
}

// RestGateway talks to a Razorpay-style REST gateway.
type RestGateway struct {
	client    *resty.Client
	keyID     string
	secretKey string
}

// NewRestGateway builds a gateway client with basic auth and a hard
// request timeout so a slow gateway surfaces as a retryable failure.
func NewRestGateway(baseURL, keyID, secretKey string, timeout time.Duration) *RestGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, secretKey).
		SetTimeout(timeout)

	return &RestGateway{
		client:    client,
		keyID:     keyID,
		secretKey: secretKey,
	}
}

type gatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   uint   `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway and returns its order id.
func (g *RestGateway) CreateOrder(amount uint, currency, receipt string) (string, error) {
	var orderResp gatewayOrderResponse

	resp, err := g.client.R().
		SetBody(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&orderResp).
		Post("/orders")
	if err != nil {
		return "", fmt.Errorf("gateway order request failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("gateway order request rejected: %s", resp.Status())
	}

	if orderResp.ID == "" {
		return "", fmt.Errorf("gateway returned an empty order id")
	}

	return orderResp.ID, nil
}

// ComputeSignature returns the hex HMAC-SHA256 of "orderID|paymentID"
// under the given secret. This is the signature scheme the gateway uses
// to authorize a payment confirmation.
func ComputeSignature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the expected signature against the one the
// checkout client handed back, in constant time.
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := ComputeSignature(secret, gatewayOrderID, gatewayPaymentID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
