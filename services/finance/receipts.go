package finance

import (
	"context"
	"fmt"
	"io"

	paymentRepo "campushub/database/repository/payment"

	"go.uber.org/zap"
)

// ReceiptStorage is the blob-store boundary for receipt files.
type ReceiptStorage interface {
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
}

// ReceiptService resolves and stores receipt documents for payments.
type ReceiptService interface {
	// GetReceiptURL returns the stored receipt URL for a payment, or "" when
	// none has been attached. studentID scopes the lookup to the owner.
	GetReceiptURL(paymentID, studentID string) (string, error)
	// AttachReceipt uploads a receipt file and stores its URL on the payment.
	AttachReceipt(ctx context.Context, paymentID string, file io.Reader) (string, error)
}

// DefaultReceiptService is the production implementation.
type DefaultReceiptService struct {
	Payments paymentRepo.PaymentRepository
	Storage  ReceiptStorage
	Logger   *zap.Logger
}

func (s *DefaultReceiptService) GetReceiptURL(paymentID, studentID string) (string, error) {
	payment, err := s.Payments.GetByID(paymentID)
	if err != nil {
		return "", fmt.Errorf("payment lookup failed: %w", err)
	}
	if payment == nil || (studentID != "" && payment.StudentID != studentID) {
		return "", errorf(CodePaymentNotFound, "payment %s does not exist", paymentID)
	}
	return payment.ReceiptURL, nil
}

func (s *DefaultReceiptService) AttachReceipt(ctx context.Context, paymentID string, file io.Reader) (string, error) {
	payment, err := s.Payments.GetByID(paymentID)
	if err != nil {
		return "", fmt.Errorf("payment lookup failed: %w", err)
	}
	if payment == nil {
		return "", errorf(CodePaymentNotFound, "payment %s does not exist", paymentID)
	}

	url, err := s.Storage.Upload(ctx, file, "receipt_"+payment.ID)
	if err != nil {
		return "", fmt.Errorf("receipt upload failed: %w", err)
	}

	payment.ReceiptURL = url
	if err := s.Payments.Update(payment); err != nil {
		return "", fmt.Errorf("failed to store receipt url: %w", err)
	}

	s.Logger.Info("receipt attached", zap.String("paymentID", payment.ID))
	return url, nil
}
