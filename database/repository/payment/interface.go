package paymentRepo

import "campushub/models"

// PaymentFilter narrows payment history listings.
type PaymentFilter struct {
	Status string
	Method string
	Skip   int64
	Limit  int64
}

// PaymentRepository defines persistence for payment records. Failed and
// orphaned payments are never deleted; they stay behind for audit.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id string) (*models.Payment, error)
	// FindPendingByOrderID locates the Pending payment a gateway confirmation
	// refers to, matched on order id plus owning student.
	FindPendingByOrderID(studentID, orderID string) (*models.Payment, error)
	ListByStudent(studentID string, filter PaymentFilter) ([]models.Payment, error)
}
