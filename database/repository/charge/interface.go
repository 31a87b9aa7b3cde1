package chargeRepo

import (
	"time"

	"campushub/models"
)

// ChargeFilter narrows charge listings.
type ChargeFilter struct {
	Status string
	Term   string
	Skip   int64
	Limit  int64
}

// ChargeRepository defines persistence for charge definitions.
type ChargeRepository interface {
	Create(charge *models.Charge) error
	Update(charge *models.Charge) error
	Delete(id string) error
	GetByID(id string) (*models.Charge, error)
	List(filter ChargeFilter) ([]models.Charge, error)
	// ListApplicable returns active charges due on or after asOf whose
	// applicability is "All Students" or exactly the given program.
	ListApplicable(program string, asOf time.Time) ([]models.Charge, error)
}
