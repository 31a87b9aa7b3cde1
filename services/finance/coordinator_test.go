package finance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	chargeRepo "campushub/database/repository/charge"
	ledgerRepo "campushub/database/repository/ledger"
	paymentRepo "campushub/database/repository/payment"
	"campushub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-gateway-secret"

// --- fakes ---

type fakeChargeRepo struct {
	charges map[string]*models.Charge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{charges: map[string]*models.Charge{}}
}

func (f *fakeChargeRepo) Create(c *models.Charge) error {
	f.charges[c.ID] = c
	return nil
}

func (f *fakeChargeRepo) Update(c *models.Charge) error {
	if _, ok := f.charges[c.ID]; !ok {
		return fmt.Errorf("charge %s not found", c.ID)
	}
	f.charges[c.ID] = c
	return nil
}

func (f *fakeChargeRepo) Delete(id string) error {
	delete(f.charges, id)
	return nil
}

func (f *fakeChargeRepo) GetByID(id string) (*models.Charge, error) {
	return f.charges[id], nil
}

func (f *fakeChargeRepo) List(chargeRepo.ChargeFilter) ([]models.Charge, error) {
	var out []models.Charge
	for _, c := range f.charges {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeChargeRepo) ListApplicable(program string, asOf time.Time) ([]models.Charge, error) {
	var out []models.Charge
	for _, c := range f.charges {
		if c.AppliesTo(program, asOf) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]*models.LedgerEntry
	// forceLockHeld simulates losing the insert race even when no active
	// lock was visible during the pre-check.
	forceLockHeld bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: map[string]*models.LedgerEntry{}}
}

func (f *fakeLedgerRepo) Acquire(e *models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceLockHeld {
		return ledgerRepo.ErrLockHeld
	}
	for _, other := range f.entries {
		if other.StudentID == e.StudentID && other.ChargeID == e.ChargeID && other.Status == models.LedgerStatusPending {
			return ledgerRepo.ErrLockHeld
		}
	}
	cp := *e
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeLedgerRepo) find(studentID, chargeID, status string) *models.LedgerEntry {
	for _, e := range f.entries {
		if e.StudentID == studentID && e.ChargeID == chargeID && e.Status == status {
			cp := *e
			return &cp
		}
	}
	return nil
}

func (f *fakeLedgerRepo) FindActiveLock(studentID, chargeID string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(studentID, chargeID, models.LedgerStatusPending), nil
}

func (f *fakeLedgerRepo) FindPaid(studentID, chargeID string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(studentID, chargeID, models.LedgerStatusPaid), nil
}

func (f *fakeLedgerRepo) LinkPayment(entryID, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.Status != models.LedgerStatusPending {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	e.PaymentID = paymentID
	return nil
}

func (f *fakeLedgerRepo) Finalize(entryID, paymentID string, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.Status != models.LedgerStatusPending {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	e.Status = models.LedgerStatusPaid
	e.PaymentID = paymentID
	e.PaidAt = &paidAt
	return nil
}

func (f *fakeLedgerRepo) Release(entryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.Status != models.LedgerStatusPending {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeLedgerRepo) DeleteStale(cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.entries {
		if e.Status == models.LedgerStatusPending && e.IssuedAt.Before(cutoff) {
			delete(f.entries, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeLedgerRepo) ListByStudent(studentID string) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[string]*models.Payment{}}
}

func (f *fakePaymentRepo) Create(p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) Update(p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[p.ID]; !ok {
		return fmt.Errorf("payment %s not found", p.ID)
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) GetByID(id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindPendingByOrderID(studentID, orderID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.StudentID == studentID && p.Status == models.PaymentStatusPending && p.Metadata[models.MetaOrderID] == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) ListByStudent(studentID string, _ paymentRepo.PaymentFilter) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeGateway struct {
	orders int
	err    error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.orders++
	return fmt.Sprintf("order_test_%d", f.orders), nil
}

// --- helpers ---

type coordinatorFixture struct {
	charges  *fakeChargeRepo
	ledger   *fakeLedgerRepo
	payments *fakePaymentRepo
	gateway  *fakeGateway
	coord    *TransactionCoordinator
}

func newFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		charges:  newFakeChargeRepo(),
		ledger:   newFakeLedgerRepo(),
		payments: newFakePaymentRepo(),
		gateway:  &fakeGateway{},
	}
	f.coord = NewTransactionCoordinator(
		f.charges, f.ledger, f.payments, f.gateway,
		testSecret, "INR", nil, zap.NewNop(),
	)
	return f
}

func (f *coordinatorFixture) addCharge(id string, amount float64) *models.Charge {
	c := &models.Charge{
		ID:            id,
		Title:         "Tuition",
		Description:   "Tuition fee",
		Amount:        amount,
		Term:          "Fall2025",
		DueDate:       time.Now().Add(90 * 24 * time.Hour),
		ApplicableFor: models.ApplicableForAll,
		Status:        models.ChargeStatusActive,
	}
	f.charges.charges[id] = c
	return c
}

func signConfirmation(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func directRequest(chargeID string, amount float64) models.PaymentRequest {
	return models.PaymentRequest{
		ChargeID: chargeID,
		Amount:   amount,
		Term:     "Fall2025",
		Method:   models.MethodBankTransfer,
	}
}

func orderRequest(chargeID string, amount float64) models.PaymentRequest {
	return models.PaymentRequest{
		ChargeID: chargeID,
		Amount:   amount,
		Term:     "Fall2025",
		Method:   models.MethodRazorpay,
	}
}

// --- tests ---

func TestDirectPaymentSettles(t *testing.T) {
	f := newFixture(t)
	f.addCharge("tuition", 500)

	result, err := f.coord.MakePayment(context.Background(), "student-1", directRequest("tuition", 500))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	assert.NotEmpty(t, result.PaymentID)

	entry, err := f.ledger.FindPaid("student-1", "tuition")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, result.PaymentID, entry.PaymentID)
	assert.NotNil(t, entry.PaidAt)

	p, err := f.payments.GetByID(result.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "Payment for Fall2025", p.Description)
}

func TestSecondPaymentFailsAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	f.addCharge("tuition", 500)

	_, err := f.coord.MakePayment(context.Background(), "student-1", directRequest("tuition", 500))
	require.NoError(t, err)

	_, err = f.coord.MakePayment(context.Background(), "student-1", directRequest("tuition", 500))
	assert.Equal(t, CodeAlreadyPaid, CodeOf(err))
}

func TestChargeNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.MakePayment(context.Background(), "student-1", directRequest("missing", 500))
	assert.Equal(t, CodeChargeNotFound, CodeOf(err))
}

func TestInvalidAmountRejected(t *testing.T) {
	f := newFixture(t)
	f.addCharge("tuition", 500)

	_, err := f.coord.MakePayment(context.Background(), "student-1", directRequest("tuition", 0))
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))
}

func TestUnsupportedMethodRejected(t *testing.T) {
	f := newFixture(t)
	f.addCharge("tuition", 500)

	req := directRequest("tuition", 500)
	req.Method = models.PaymentMethod("PayPal")
	_, err := f.coord.MakePayment(context.Background(), "student-1", req)
	assert.Equal(t, CodeUnsupportedMethod, CodeOf(err))
}

func TestGatewayOrderOpenLeavesLedgerPending(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	result, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, result.Status)
	assert.Equal(t, "order_test_1", result.OrderID)
	assert.Equal(t, "INR", result.Currency)

	lock, err := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, result.PaymentID, lock.PaymentID)

	paid, err := f.ledger.FindPaid("student-1", "lab-fee")
	require.NoError(t, err)
	assert.Nil(t, paid)
}

func TestSecondOrderOpenFailsPaymentInProgress(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	_, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)

	_, err = f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	assert.Equal(t, CodePaymentInProgress, CodeOf(err))
}

func TestStaleLockIsReclaimed(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	stale := &models.LedgerEntry{
		ID:        "stale-lock",
		StudentID: "student-1",
		ChargeID:  "lab-fee",
		Amount:    300,
		Term:      "Fall2025",
		Status:    models.LedgerStatusPending,
		Method:    models.MethodRazorpay,
		IssuedAt:  time.Now().Add(-10 * time.Minute),
	}
	f.ledger.entries[stale.ID] = stale

	result, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, result.Status)

	lock, err := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.NotEqual(t, "stale-lock", lock.ID)
}

func TestLostInsertRaceSurfacesPaymentInProgress(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)
	f.ledger.forceLockHeld = true

	_, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	assert.Equal(t, CodePaymentInProgress, CodeOf(err))
}

func TestConfirmGatewayPaymentFinalizes(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	opened, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)

	confirm := orderRequest("lab-fee", 300)
	confirm.RazorpayOrderID = opened.OrderID
	confirm.RazorpayPaymentID = "pay_abc123"
	confirm.RazorpaySignature = signConfirmation(opened.OrderID, "pay_abc123")

	result, err := f.coord.MakePayment(context.Background(), "student-1", confirm)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	assert.Equal(t, opened.PaymentID, result.PaymentID)

	entry, err := f.ledger.FindPaid("student-1", "lab-fee")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, opened.PaymentID, entry.PaymentID)

	p, err := f.payments.GetByID(opened.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "pay_abc123", p.Metadata[models.MetaPaymentID])
}

func TestForgedSignatureReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	opened, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)

	confirm := orderRequest("lab-fee", 300)
	confirm.RazorpayOrderID = opened.OrderID
	confirm.RazorpayPaymentID = "pay_abc123"
	confirm.RazorpaySignature = "deadbeef"

	_, err = f.coord.MakePayment(context.Background(), "student-1", confirm)
	assert.Equal(t, CodeInvalidPaymentSignature, CodeOf(err))

	// The rollback must have removed the lock, so a fresh attempt succeeds.
	lock, err := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, err)
	assert.Nil(t, lock)

	_, err = f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)
}

func TestGatewayErrorReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)
	f.gateway.err = errors.New("gateway unreachable")

	_, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	assert.Equal(t, CodeGatewayError, CodeOf(err))

	lock, lerr := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, lerr)
	assert.Nil(t, lock)
}

func TestConfirmationForUnknownOrderReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	confirm := orderRequest("lab-fee", 300)
	confirm.RazorpayOrderID = "order_never_opened"
	confirm.RazorpayPaymentID = "pay_abc123"
	confirm.RazorpaySignature = signConfirmation("order_never_opened", "pay_abc123")

	_, err := f.coord.MakePayment(context.Background(), "student-1", confirm)
	assert.Equal(t, CodePaymentNotFound, CodeOf(err))

	lock, lerr := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, lerr)
	assert.Nil(t, lock)
}

func TestPartialConfirmationFieldsRejected(t *testing.T) {
	f := newFixture(t)
	f.addCharge("lab-fee", 300)

	confirm := orderRequest("lab-fee", 300)
	confirm.RazorpayOrderID = "order_test_1"
	// payment id and signature missing

	_, err := f.coord.MakePayment(context.Background(), "student-1", confirm)
	assert.Equal(t, CodeInvalidPaymentSignature, CodeOf(err))

	lock, lerr := f.ledger.FindActiveLock("student-1", "lab-fee")
	require.NoError(t, lerr)
	assert.Nil(t, lock)
}

func TestDistinctPairsProceedIndependently(t *testing.T) {
	f := newFixture(t)
	f.addCharge("tuition", 500)
	f.addCharge("lab-fee", 300)

	_, err := f.coord.MakePayment(context.Background(), "student-1", orderRequest("tuition", 500))
	require.NoError(t, err)
	_, err = f.coord.MakePayment(context.Background(), "student-1", orderRequest("lab-fee", 300))
	require.NoError(t, err)
	_, err = f.coord.MakePayment(context.Background(), "student-2", orderRequest("tuition", 500))
	require.NoError(t, err)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50000), minorUnits(500))
	assert.Equal(t, int64(29999), minorUnits(299.99))
	assert.Equal(t, int64(1), minorUnits(0.01))
}

func TestReceiptTagTruncatesStudentID(t *testing.T) {
	at := time.Unix(1700000000, 0)
	tag := receiptTag("abcdefghijklmnop", at)
	assert.Equal(t, "rcpt_abcdefgh_1700000000", tag)

	short := receiptTag("ab", at)
	assert.Equal(t, "rcpt_ab_1700000000", short)
}
