package finance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Gateway is the boundary to the external payment processor. Order creation
// is the only remote call; confirmation trust rests entirely on the HMAC
// signature check, which runs locally.
type Gateway interface {
	// CreateOrder opens a provisional order with the gateway for the amount
	// expressed in the currency's minor units and returns the gateway order id.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

// VerifySignature reports whether sig is the hex-encoded HMAC-SHA256 of
// "orderID|paymentID" under the shared secret. This is the sole trust
// boundary for accepting the gateway's claim that money moved.
func VerifySignature(orderID, paymentID, sig, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}
