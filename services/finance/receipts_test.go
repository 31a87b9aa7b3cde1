package finance

import (
	"context"
	"io"
	"strings"
	"testing"

	"campushub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	uploadedName string
	uploadedBody string
}

func (f *fakeStorage) Upload(_ context.Context, file io.Reader, name string) (string, error) {
	body, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploadedName = name
	f.uploadedBody = string(body)
	return "https://cdn.example/" + name + ".pdf", nil
}

func TestAttachReceiptStoresURL(t *testing.T) {
	payments := newFakePaymentRepo()
	require.NoError(t, payments.Create(&models.Payment{ID: "pay-1", StudentID: "student-1"}))

	storage := &fakeStorage{}
	svc := &DefaultReceiptService{Payments: payments, Storage: storage, Logger: zap.NewNop()}

	url, err := svc.AttachReceipt(context.Background(), "pay-1", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/receipt_pay-1.pdf", url)
	assert.Equal(t, "receipt_pay-1", storage.uploadedName)
	assert.Equal(t, "pdf bytes", storage.uploadedBody)

	p, err := payments.GetByID("pay-1")
	require.NoError(t, err)
	assert.Equal(t, url, p.ReceiptURL)
}

func TestAttachReceiptUnknownPayment(t *testing.T) {
	svc := &DefaultReceiptService{Payments: newFakePaymentRepo(), Storage: &fakeStorage{}, Logger: zap.NewNop()}

	_, err := svc.AttachReceipt(context.Background(), "missing", strings.NewReader("pdf"))
	assert.Equal(t, CodePaymentNotFound, CodeOf(err))
}

func TestGetReceiptURLScopedToOwner(t *testing.T) {
	payments := newFakePaymentRepo()
	require.NoError(t, payments.Create(&models.Payment{
		ID:         "pay-1",
		StudentID:  "student-1",
		ReceiptURL: "https://cdn.example/receipt_pay-1.pdf",
	}))
	svc := &DefaultReceiptService{Payments: payments, Logger: zap.NewNop()}

	url, err := svc.GetReceiptURL("pay-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/receipt_pay-1.pdf", url)

	_, err = svc.GetReceiptURL("pay-1", "student-2")
	assert.Equal(t, CodePaymentNotFound, CodeOf(err))
}

func TestGetReceiptURLNoneAttached(t *testing.T) {
	payments := newFakePaymentRepo()
	require.NoError(t, payments.Create(&models.Payment{ID: "pay-1", StudentID: "student-1"}))
	svc := &DefaultReceiptService{Payments: payments, Logger: zap.NewNop()}

	url, err := svc.GetReceiptURL("pay-1", "student-1")
	require.NoError(t, err)
	assert.Empty(t, url)
}
