package finance

import (
	"context"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

// RazorpayGateway implements Gateway against the Razorpay orders API.
type RazorpayGateway struct {
	client *razorpay.Client
	logger *zap.Logger
}

// NewRazorpayGateway creates a gateway adapter from API credentials.
func NewRazorpayGateway(keyID, keySecret string, logger *zap.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger,
	}
}

// CreateOrder opens an order with Razorpay. Failures are fatal to the current
// payment attempt; no automatic retry is performed.
func (g *RazorpayGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", errorf(CodeGatewayError, "gateway order creation failed: %v", err)
	}
	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", newError(CodeGatewayError, "gateway returned no order id")
	}

	g.logger.Info("gateway order created",
		zap.String("orderID", orderID),
		zap.Int64("amountMinor", amountMinor),
		zap.String("currency", currency))
	return orderID, nil
}
