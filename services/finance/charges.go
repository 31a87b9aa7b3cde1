package finance

import (
	"fmt"
	"strings"
	"time"

	chargeRepo "campushub/database/repository/charge"
	"campushub/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DueDateLayout is the wire format for charge due dates.
const DueDateLayout = "2006-01-02"

// ChargeCatalog manages charge definitions and applicability matching.
type ChargeCatalog interface {
	CreateCharge(req models.ChargeRequest, createdBy string) (*models.Charge, error)
	UpdateCharge(id string, req models.ChargeRequest) (*models.Charge, error)
	DeleteCharge(id string) error
	GetCharge(id string) (*models.Charge, error)
	ListCharges(filter chargeRepo.ChargeFilter) ([]models.Charge, error)
	ApplicableCharges(program string, asOf time.Time) ([]models.Charge, error)
}

// DefaultChargeCatalog is the production implementation.
type DefaultChargeCatalog struct {
	Repo   chargeRepo.ChargeRepository
	Logger *zap.Logger
}

// validateChargeRequest checks the request fields and parses the due date.
func validateChargeRequest(req models.ChargeRequest) (time.Time, error) {
	if req.Amount <= 0 {
		return time.Time{}, newError(CodeInvalidAmount, "charge amount must be positive")
	}

	var missing []string
	for field, value := range map[string]string{
		"title":         req.Title,
		"description":   req.Description,
		"term":          req.Term,
		"applicableFor": req.ApplicableFor,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return time.Time{}, errorf(CodeMissingRequiredFields, "missing required fields: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(req.DueDate) == "" {
		return time.Time{}, newError(CodeInvalidDueDate, "due date is required")
	}
	dueDate, err := time.Parse(DueDateLayout, req.DueDate)
	if err != nil {
		return time.Time{}, errorf(CodeInvalidDueDate, "due date %q is not a valid date (want %s)", req.DueDate, DueDateLayout)
	}
	return dueDate, nil
}

// CreateCharge validates and persists a new charge in Active status.
func (s *DefaultChargeCatalog) CreateCharge(req models.ChargeRequest, createdBy string) (*models.Charge, error) {
	dueDate, err := validateChargeRequest(req)
	if err != nil {
		return nil, err
	}

	charge := &models.Charge{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		Amount:        req.Amount,
		Term:          req.Term,
		DueDate:       dueDate,
		ApplicableFor: req.ApplicableFor,
		CreatedBy:     createdBy,
		Status:        models.ChargeStatusActive,
	}
	if err := s.Repo.Create(charge); err != nil {
		return nil, fmt.Errorf("failed to persist charge: %w", err)
	}

	s.Logger.Info("charge created",
		zap.String("chargeID", charge.ID),
		zap.String("title", charge.Title),
		zap.Float64("amount", charge.Amount))
	return charge, nil
}

// UpdateCharge applies new fields to an existing charge.
func (s *DefaultChargeCatalog) UpdateCharge(id string, req models.ChargeRequest) (*models.Charge, error) {
	dueDate, err := validateChargeRequest(req)
	if err != nil {
		return nil, err
	}

	charge, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up charge: %w", err)
	}
	if charge == nil {
		return nil, errorf(CodeChargeNotFound, "charge %s does not exist", id)
	}

	charge.Title = req.Title
	charge.Description = req.Description
	charge.Amount = req.Amount
	charge.Term = req.Term
	charge.DueDate = dueDate
	charge.ApplicableFor = req.ApplicableFor

	if err := s.Repo.Update(charge); err != nil {
		return nil, fmt.Errorf("failed to update charge: %w", err)
	}
	return charge, nil
}

// DeleteCharge removes a charge definition. Paid ledger entries referencing it
// are left intact; they carry their own copy of the billing terms.
func (s *DefaultChargeCatalog) DeleteCharge(id string) error {
	charge, err := s.Repo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to look up charge: %w", err)
	}
	if charge == nil {
		return errorf(CodeChargeNotFound, "charge %s does not exist", id)
	}
	if err := s.Repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete charge: %w", err)
	}
	s.Logger.Info("charge deleted", zap.String("chargeID", id))
	return nil
}

// GetCharge fetches a charge by id.
func (s *DefaultChargeCatalog) GetCharge(id string) (*models.Charge, error) {
	charge, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up charge: %w", err)
	}
	if charge == nil {
		return nil, errorf(CodeChargeNotFound, "charge %s does not exist", id)
	}
	return charge, nil
}

// ListCharges returns charges matching the filter.
func (s *DefaultChargeCatalog) ListCharges(filter chargeRepo.ChargeFilter) ([]models.Charge, error) {
	return s.Repo.List(filter)
}

// ApplicableCharges returns all charges billable to a program as of the date.
func (s *DefaultChargeCatalog) ApplicableCharges(program string, asOf time.Time) ([]models.Charge, error) {
	return s.Repo.ListApplicable(program, asOf)
}
