package models

import "time"

const (
	ChargeStatusActive   = "Active"
	ChargeStatusInactive = "Inactive"
)

// ApplicableForAll marks a charge that applies to every student regardless of program.
const ApplicableForAll = "All Students"

// Charge is a billable obligation defined by the financial office.
type Charge struct {
	ID            string    `bson:"id" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Description   string    `bson:"description" json:"description"`
	Amount        float64   `bson:"amount" json:"amount"`
	Term          string    `bson:"term" json:"term"`
	DueDate       time.Time `bson:"due_date" json:"dueDate"`
	ApplicableFor string    `bson:"applicable_for" json:"applicableFor"`
	CreatedBy     string    `bson:"created_by" json:"createdBy"`
	Status        string    `bson:"status" json:"status"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// AppliesTo reports whether the charge is billable to a student enrolled in
// the given program as of the given date.
func (ch *Charge) AppliesTo(program string, asOf time.Time) bool {
	if ch.Status != ChargeStatusActive {
		return false
	}
	if ch.DueDate.Before(asOf) {
		return false
	}
	return ch.ApplicableFor == ApplicableForAll || ch.ApplicableFor == program
}

// ChargeRequest carries the fields for charge creation and update.
// DueDate is accepted as a string and validated server-side.
type ChargeRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Term          string  `json:"term"`
	DueDate       string  `json:"dueDate"`
	ApplicableFor string  `json:"applicableFor"`
}
