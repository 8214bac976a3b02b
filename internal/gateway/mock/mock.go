// Package mock is an in-process payment gateway for development and tests.
// It signs with the same scheme as the real gateway so the verification
// flow works end to end.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ekaraca/storefront/internal/gateway"
)

// Gateway fakes the payment provider in memory.
type Gateway struct {
	keyID  string
	secret string
	seq    atomic.Int64

	// FailCreate makes CreateOrder return an error, for exercising the
	// compensation path.
	FailCreate bool
}

// New creates a mock gateway with the given credentials.
func New(keyID, secret string) *Gateway {
	return &Gateway{keyID: keyID, secret: secret}
}

func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if g.FailCreate {
		return "", fmt.Errorf("mock gateway: create order refused")
	}
	return fmt.Sprintf("order_mock_%d", g.seq.Add(1)), nil
}

func (g *Gateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return gateway.VerifySignature(g.secret, gatewayOrderID, gatewayPaymentID, signature)
}

func (g *Gateway) KeyID() string {
	return g.keyID
}

// Sign produces a valid signature for a payment, as the provider's checkout
// would.
func (g *Gateway) Sign(gatewayOrderID, gatewayPaymentID string) string {
	return gateway.Sign(g.secret, gatewayOrderID, gatewayPaymentID)
}
