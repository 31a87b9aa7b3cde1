package handlers

import (
	"net/http"
	"strconv"
	"time"

	chargeRepo "campushub/database/repository/charge"
	"campushub/models"
	"campushub/services/finance"
	"campushub/services/student"
	"campushub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChargeHandler exposes the charge management endpoints.
type ChargeHandler struct {
	Catalog  finance.ChargeCatalog
	Students student.StudentService
	Logger   *zap.Logger
}

// NewChargeHandler wires a ChargeHandler.
func NewChargeHandler(catalog finance.ChargeCatalog, students student.StudentService, logger *zap.Logger) *ChargeHandler {
	return &ChargeHandler{Catalog: catalog, Students: students, Logger: logger}
}

// CreateChargeHandler creates a charge. Staff only.
func (h *ChargeHandler) CreateChargeHandler(c *gin.Context) {
	var req models.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	charge, err := h.Catalog.CreateCharge(req, c.GetString("studentID"))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, charge)
}

// UpdateChargeHandler updates a charge. Staff only.
func (h *ChargeHandler) UpdateChargeHandler(c *gin.Context) {
	var req models.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	charge, err := h.Catalog.UpdateCharge(c.Param("id"), req)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, charge)
}

// DeleteChargeHandler deletes a charge. Staff only.
func (h *ChargeHandler) DeleteChargeHandler(c *gin.Context) {
	if err := h.Catalog.DeleteCharge(c.Param("id")); err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "charge deleted"})
}

// GetChargeHandler fetches a single charge.
func (h *ChargeHandler) GetChargeHandler(c *gin.Context) {
	charge, err := h.Catalog.GetCharge(c.Param("id"))
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, charge)
}

// ListChargesHandler lists charges with optional status/term filters.
func (h *ChargeHandler) ListChargesHandler(c *gin.Context) {
	skip, _ := strconv.ParseInt(c.Query("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	charges, err := h.Catalog.ListCharges(chargeRepo.ChargeFilter{
		Status: c.Query("status"),
		Term:   c.Query("term"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list charges", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

// ApplicableChargesHandler lists the charges billable to the authenticated
// student's program as of now.
func (h *ChargeHandler) ApplicableChargesHandler(c *gin.Context) {
	st, err := h.Students.GetStudentByID(c.GetString("studentID"))
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "account lookup failed", err.Error())
		return
	}

	charges, err := h.Catalog.ApplicableCharges(st.Program, time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list applicable charges", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"charges": charges})
}
