package handlers

import (
	studentRepo "campushub/database/repository/student"

	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates everything route registration needs: the student
// repository for auth middleware plus the endpoint handlers.
type HandlerBundle struct {
	StudentRepo studentRepo.StudentRepository

	// Account endpoints.
	RegisterStudentHandler     gin.HandlerFunc
	AuthenticateStudentHandler gin.HandlerFunc
	GetOwnProfileHandler       gin.HandlerFunc
	UpdateFCMTokenHandler      gin.HandlerFunc

	// Charge endpoints.
	CreateChargeHandler      gin.HandlerFunc
	UpdateChargeHandler      gin.HandlerFunc
	DeleteChargeHandler      gin.HandlerFunc
	GetChargeHandler         gin.HandlerFunc
	ListChargesHandler       gin.HandlerFunc
	ApplicableChargesHandler gin.HandlerFunc

	// Payment endpoints.
	MakePaymentHandler   gin.HandlerFunc
	ListPaymentsHandler  gin.HandlerFunc
	GetReceiptHandler    gin.HandlerFunc
	AttachReceiptHandler gin.HandlerFunc
}
