package models

import "time"

const (
	LedgerStatusPending = "Pending"
	LedgerStatusPaid    = "Paid"
)

// LedgerEntry is the per-student-per-charge financial record. While Pending
// it acts as the in-flight lock for a payment attempt; once Paid it is the
// permanent completion record linking to the settling Payment.
type LedgerEntry struct {
	ID             string        `bson:"id" json:"id"`
	StudentID      string        `bson:"student_id" json:"studentId"`
	ChargeID       string        `bson:"charge_id" json:"chargeId"`
	Amount         float64       `bson:"amount" json:"amount"`
	Term           string        `bson:"term" json:"term"`
	Status         string        `bson:"status" json:"status"`
	Method         PaymentMethod `bson:"method" json:"method"`
	PaymentID      string        `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	IssuedAt       time.Time     `bson:"issued_at" json:"issuedAt"`
	PaymentDueDate time.Time     `bson:"payment_due_date" json:"paymentDueDate"`
	PaidAt         *time.Time    `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
}

// Expired reports whether a Pending entry is older than the lock timeout and
// may be reclaimed by a new payment attempt.
func (e *LedgerEntry) Expired(timeout time.Duration, now time.Time) bool {
	return e.Status == LedgerStatusPending && now.Sub(e.IssuedAt) > timeout
}
