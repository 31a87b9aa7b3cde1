package handlers

import (
	"errors"
	"net/http"
	"strconv"

	paymentRepo "campushub/database/repository/payment"
	"campushub/models"
	"campushub/services/finance"
	"campushub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes the payment transaction endpoints.
type PaymentHandler struct {
	Coordinator finance.Coordinator
	Payments    paymentRepo.PaymentRepository
	Receipts    finance.ReceiptService
	Logger      *zap.Logger
}

// NewPaymentHandler wires a PaymentHandler.
func NewPaymentHandler(coordinator finance.Coordinator, payments paymentRepo.PaymentRepository, receipts finance.ReceiptService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		Coordinator: coordinator,
		Payments:    payments,
		Receipts:    receipts,
		Logger:      logger,
	}
}

// writeFinanceError maps finance error kinds to a 400 with a machine-readable
// code; anything else is a server fault.
func writeFinanceError(c *gin.Context, err error) {
	var fe *finance.Error
	if errors.As(err, &fe) {
		utils.JSONErrorCode(c, fe.Code, fe.Message)
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "Payment processing failed", err.Error())
}

// MakePaymentHandler runs a payment attempt for the authenticated student.
func (h *PaymentHandler) MakePaymentHandler(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	studentID := c.GetString("studentID")
	result, err := h.Coordinator.MakePayment(c.Request.Context(), studentID, req)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListPaymentsHandler returns the authenticated student's payment history.
func (h *PaymentHandler) ListPaymentsHandler(c *gin.Context) {
	studentID := c.GetString("studentID")
	skip, _ := strconv.ParseInt(c.Query("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	payments, err := h.Payments.ListByStudent(studentID, paymentRepo.PaymentFilter{
		Status: c.Query("status"),
		Method: c.Query("method"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list payments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GetReceiptHandler returns the stored receipt URL for one of the student's payments.
func (h *PaymentHandler) GetReceiptHandler(c *gin.Context) {
	studentID := c.GetString("studentID")
	url, err := h.Receipts.GetReceiptURL(c.Param("id"), studentID)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	if url == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no receipt attached"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receiptUrl": url})
}

// AttachReceiptHandler uploads a receipt file for a payment. Staff only.
func (h *PaymentHandler) AttachReceiptHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "a receipt file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	defer file.Close()

	url, err := h.Receipts.AttachReceipt(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		writeFinanceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receiptUrl": url})
}
