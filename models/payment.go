package models

import "time"

// PaymentMethod enumerates how a charge can be settled. The gateway method
// runs the two-call order/confirm protocol; the rest settle immediately.
type PaymentMethod string

const (
	MethodRazorpay     PaymentMethod = "Razorpay"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCash         PaymentMethod = "Cash"
	MethodCheque       PaymentMethod = "Cheque"
)

// Gateway reports whether settlement goes through the external payment gateway.
func (m PaymentMethod) Gateway() bool {
	return m == MethodRazorpay
}

// Valid reports whether m is one of the declared payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodRazorpay, MethodBankTransfer, MethodCash, MethodCheque:
		return true
	}
	return false
}

const (
	PaymentStatusPending   = "Pending"
	PaymentStatusCompleted = "Completed"
	PaymentStatusFailed    = "Failed"
)

// Metadata keys used for gateway correlation on Payment records.
const (
	MetaOrderID   = "razorpay_order_id"
	MetaPaymentID = "razorpay_payment_id"
	MetaSignature = "razorpay_signature"
	MetaChargeID  = "charge_id"
	MetaLedgerID  = "ledger_id"
)

// Payment records a monetary transaction. Gateway correlation fields live in
// the Metadata map; the settled charge is linked through the ledger entry.
type Payment struct {
	ID          string            `bson:"id" json:"id"`
	StudentID   string            `bson:"student_id" json:"studentId"`
	Date        time.Time         `bson:"date" json:"date"`
	Description string            `bson:"description" json:"description"`
	Method      PaymentMethod     `bson:"method" json:"method"`
	Amount      float64           `bson:"amount" json:"amount"`
	Status      string            `bson:"status" json:"status"`
	ReceiptURL  string            `bson:"receipt_url,omitempty" json:"receiptUrl,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updatedAt"`
}

// PaymentRequest is the body of POST /api/payments. The razorpay fields are
// absent on the order-opening call and present on the confirmation call.
type PaymentRequest struct {
	ChargeID          string        `json:"chargeId" binding:"required"`
	Amount            float64       `json:"amount" binding:"required"`
	Term              string        `json:"term"`
	Method            PaymentMethod `json:"method" binding:"required"`
	RazorpayPaymentID string        `json:"razorpayPaymentId"`
	RazorpayOrderID   string        `json:"razorpayOrderId"`
	RazorpaySignature string        `json:"razorpaySignature"`
}

// PaymentResult summarizes the outcome of a payment attempt back to the client.
type PaymentResult struct {
	PaymentID string  `json:"paymentId"`
	OrderID   string  `json:"orderId,omitempty"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	Status    string  `json:"status"`
}
