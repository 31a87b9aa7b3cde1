package finance

import (
	"testing"
	"time"

	"campushub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validChargeRequest() models.ChargeRequest {
	return models.ChargeRequest{
		Title:         "Lab Fee",
		Description:   "Chemistry lab consumables",
		Amount:        300,
		Term:          "Fall2025",
		DueDate:       "2026-12-01",
		ApplicableFor: "BSc Chemistry",
	}
}

func newCatalog() (*DefaultChargeCatalog, *fakeChargeRepo) {
	repo := newFakeChargeRepo()
	return &DefaultChargeCatalog{Repo: repo, Logger: zap.NewNop()}, repo
}

func TestCreateChargePersistsActive(t *testing.T) {
	catalog, repo := newCatalog()

	charge, err := catalog.CreateCharge(validChargeRequest(), "staff-1")
	require.NoError(t, err)
	assert.NotEmpty(t, charge.ID)
	assert.Equal(t, models.ChargeStatusActive, charge.Status)
	assert.Equal(t, "staff-1", charge.CreatedBy)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), charge.DueDate)
	assert.Contains(t, repo.charges, charge.ID)
}

func TestCreateChargeRejectsNonPositiveAmount(t *testing.T) {
	catalog, _ := newCatalog()

	for _, amount := range []float64{0, -1, -300.50} {
		req := validChargeRequest()
		req.Amount = amount
		_, err := catalog.CreateCharge(req, "staff-1")
		assert.Equal(t, CodeInvalidAmount, CodeOf(err), "amount %v", amount)
	}
}

func TestCreateChargeRejectsMissingFields(t *testing.T) {
	catalog, _ := newCatalog()

	blank := func(mutate func(*models.ChargeRequest)) models.ChargeRequest {
		req := validChargeRequest()
		mutate(&req)
		return req
	}

	cases := map[string]models.ChargeRequest{
		"title":          blank(func(r *models.ChargeRequest) { r.Title = "" }),
		"description":    blank(func(r *models.ChargeRequest) { r.Description = "   " }),
		"term":           blank(func(r *models.ChargeRequest) { r.Term = "" }),
		"applicable for": blank(func(r *models.ChargeRequest) { r.ApplicableFor = "" }),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.CreateCharge(req, "staff-1")
			assert.Equal(t, CodeMissingRequiredFields, CodeOf(err))
		})
	}
}

func TestCreateChargeRejectsBadDueDate(t *testing.T) {
	catalog, _ := newCatalog()

	for _, due := range []string{"", "  ", "01-12-2026", "2026/12/01", "not-a-date"} {
		req := validChargeRequest()
		req.DueDate = due
		_, err := catalog.CreateCharge(req, "staff-1")
		assert.Equal(t, CodeInvalidDueDate, CodeOf(err), "due date %q", due)
	}
}

func TestUpdateChargeUnknownID(t *testing.T) {
	catalog, _ := newCatalog()

	_, err := catalog.UpdateCharge("missing", validChargeRequest())
	assert.Equal(t, CodeChargeNotFound, CodeOf(err))
}

func TestUpdateChargeAppliesFields(t *testing.T) {
	catalog, _ := newCatalog()

	charge, err := catalog.CreateCharge(validChargeRequest(), "staff-1")
	require.NoError(t, err)

	req := validChargeRequest()
	req.Title = "Lab Fee (revised)"
	req.Amount = 350
	updated, err := catalog.UpdateCharge(charge.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Lab Fee (revised)", updated.Title)
	assert.Equal(t, float64(350), updated.Amount)
	assert.Equal(t, "staff-1", updated.CreatedBy)
}

func TestDeleteChargeUnknownID(t *testing.T) {
	catalog, _ := newCatalog()

	err := catalog.DeleteCharge("missing")
	assert.Equal(t, CodeChargeNotFound, CodeOf(err))
}

func TestChargeAppliesTo(t *testing.T) {
	now := time.Now()
	base := models.Charge{
		Status:        models.ChargeStatusActive,
		DueDate:       now.Add(24 * time.Hour),
		ApplicableFor: models.ApplicableForAll,
	}

	t.Run("all students", func(t *testing.T) {
		assert.True(t, base.AppliesTo("BSc Chemistry", now))
	})

	t.Run("program match", func(t *testing.T) {
		c := base
		c.ApplicableFor = "BSc Chemistry"
		assert.True(t, c.AppliesTo("BSc Chemistry", now))
		assert.False(t, c.AppliesTo("BA History", now))
	})

	t.Run("past due date", func(t *testing.T) {
		c := base
		c.DueDate = now.Add(-24 * time.Hour)
		assert.False(t, c.AppliesTo("BSc Chemistry", now))
	})

	t.Run("inactive", func(t *testing.T) {
		c := base
		c.Status = models.ChargeStatusInactive
		assert.False(t, c.AppliesTo("BSc Chemistry", now))
	})
}
