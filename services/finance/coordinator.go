package finance

import (
	"context"
	"fmt"
	"math"
	"time"

	chargeRepo "campushub/database/repository/charge"
	ledgerRepo "campushub/database/repository/ledger"
	paymentRepo "campushub/database/repository/payment"
	"campushub/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockTimeout is how long a Pending ledger entry blocks further payment
// attempts for the same (student, charge) pair before it is treated as
// abandoned and reclaimed. Tunable; not a protocol invariant.
const LockTimeout = 5 * time.Minute

// Coordinator drives the payment transaction lifecycle: charge lookup, lock
// acquisition, gateway interaction and ledger finalization or rollback.
type Coordinator interface {
	MakePayment(ctx context.Context, studentID string, req models.PaymentRequest) (*models.PaymentResult, error)
}

// Notifier delivers a push message to a student after a payment completes.
type Notifier interface {
	SendStudentPush(ctx context.Context, studentID, title, body string, data map[string]string) error
}

// TransactionCoordinator is the production Coordinator. All collaborators are
// injected at construction so tests can substitute fakes.
type TransactionCoordinator struct {
	Charges  chargeRepo.ChargeRepository
	Ledger   ledgerRepo.LedgerRepository
	Payments paymentRepo.PaymentRepository
	Gateway  Gateway
	Secret   string // gateway signing secret for confirmation verification
	Currency string
	Notifier Notifier // optional
	Logger   *zap.Logger
}

// NewTransactionCoordinator wires a coordinator from its collaborators.
func NewTransactionCoordinator(
	charges chargeRepo.ChargeRepository,
	ledger ledgerRepo.LedgerRepository,
	payments paymentRepo.PaymentRepository,
	gateway Gateway,
	secret, currency string,
	notifier Notifier,
	logger *zap.Logger,
) *TransactionCoordinator {
	return &TransactionCoordinator{
		Charges:  charges,
		Ledger:   ledger,
		Payments: payments,
		Gateway:  gateway,
		Secret:   secret,
		Currency: currency,
		Notifier: notifier,
		Logger:   logger,
	}
}

// MakePayment runs one payment attempt for a (student, charge) pair.
//
// For the gateway method the protocol takes two calls: the first (no
// confirmation fields) opens an order and leaves the ledger entry Pending;
// the second (order id, payment id and signature supplied) verifies the
// signature, completes the payment and finalizes the ledger entry to Paid.
// Direct methods settle in a single call. Any settlement failure releases the
// Pending ledger entry before the error is surfaced.
func (c *TransactionCoordinator) MakePayment(ctx context.Context, studentID string, req models.PaymentRequest) (*models.PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, newError(CodeInvalidAmount, "payment amount must be positive")
	}
	if !req.Method.Valid() {
		return nil, errorf(CodeUnsupportedMethod, "unsupported payment method %q", req.Method)
	}

	confirming, err := confirmationCall(req)
	if err != nil {
		return nil, err
	}

	charge, err := c.Charges.GetByID(req.ChargeID)
	if err != nil {
		return nil, fmt.Errorf("charge lookup failed: %w", err)
	}
	if charge == nil {
		return nil, errorf(CodeChargeNotFound, "charge %s does not exist", req.ChargeID)
	}

	paid, err := c.Ledger.FindPaid(studentID, req.ChargeID)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup failed: %w", err)
	}
	if paid != nil {
		return nil, errorf(CodeAlreadyPaid, "charge %s is already paid", req.ChargeID)
	}

	lock, err := c.acquireLock(studentID, charge, req, confirming)
	if err != nil {
		return nil, err
	}

	result, err := c.settle(ctx, studentID, charge, lock, req, confirming)
	if err != nil {
		// Rollback: a lock whose settlement never happened must not block
		// the next attempt.
		if rerr := c.Ledger.Release(lock.ID); rerr != nil {
			c.Logger.Error("failed to release payment lock after settlement failure",
				zap.String("ledgerID", lock.ID), zap.Error(rerr))
		}
		return nil, err
	}
	return result, nil
}

// confirmationCall classifies the request as order-opening or confirmation.
// A partial set of confirmation fields can never verify, so it is rejected
// before any lock is touched.
func confirmationCall(req models.PaymentRequest) (bool, error) {
	supplied := 0
	for _, f := range []string{req.RazorpayPaymentID, req.RazorpayOrderID, req.RazorpaySignature} {
		if f != "" {
			supplied++
		}
	}
	switch supplied {
	case 0:
		return false, nil
	case 3:
		if !req.Method.Gateway() {
			return false, errorf(CodeUnsupportedMethod, "confirmation fields are only valid for method %q", models.MethodRazorpay)
		}
		return true, nil
	default:
		return false, newError(CodeInvalidPaymentSignature, "incomplete gateway confirmation fields")
	}
}

// acquireLock establishes the Pending ledger entry for this attempt. A fresh
// lock held by someone else fails the attempt, except on a confirmation call,
// which adopts the lock created by its own order-opening call. Stale locks
// are reclaimed and replaced.
func (c *TransactionCoordinator) acquireLock(studentID string, charge *models.Charge, req models.PaymentRequest, confirming bool) (*models.LedgerEntry, error) {
	existing, err := c.Ledger.FindActiveLock(studentID, charge.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup failed: %w", err)
	}
	if existing != nil {
		now := time.Now()
		if !existing.Expired(LockTimeout, now) {
			if confirming {
				return existing, nil
			}
			return nil, errorf(CodePaymentInProgress, "a payment attempt for charge %s is already in progress", charge.ID)
		}
		if err := c.Ledger.Release(existing.ID); err != nil {
			return nil, fmt.Errorf("failed to reclaim stale lock: %w", err)
		}
		c.Logger.Info("reclaimed stale payment lock",
			zap.String("ledgerID", existing.ID),
			zap.String("studentID", studentID),
			zap.String("chargeID", charge.ID),
			zap.Duration("age", now.Sub(existing.IssuedAt)))
	}

	entry := &models.LedgerEntry{
		ID:             uuid.New().String(),
		StudentID:      studentID,
		ChargeID:       charge.ID,
		Amount:         req.Amount,
		Term:           req.Term,
		Status:         models.LedgerStatusPending,
		Method:         req.Method,
		IssuedAt:       time.Now(),
		PaymentDueDate: charge.DueDate,
	}
	if err := c.Ledger.Acquire(entry); err != nil {
		if err == ledgerRepo.ErrLockHeld {
			// A concurrent attempt won the insert.
			return nil, errorf(CodePaymentInProgress, "a payment attempt for charge %s is already in progress", charge.ID)
		}
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	return entry, nil
}

func (c *TransactionCoordinator) settle(ctx context.Context, studentID string, charge *models.Charge, lock *models.LedgerEntry, req models.PaymentRequest, confirming bool) (*models.PaymentResult, error) {
	switch {
	case req.Method.Gateway() && !confirming:
		return c.openGatewayOrder(ctx, studentID, charge, lock, req)
	case req.Method.Gateway():
		return c.confirmGatewayPayment(ctx, studentID, charge, lock, req)
	default:
		return c.settleDirect(ctx, studentID, charge, lock, req)
	}
}

// openGatewayOrder creates the remote order and the Pending payment record.
// The ledger entry stays Pending; only the confirmation call finalizes.
func (c *TransactionCoordinator) openGatewayOrder(ctx context.Context, studentID string, charge *models.Charge, lock *models.LedgerEntry, req models.PaymentRequest) (*models.PaymentResult, error) {
	receipt := receiptTag(studentID, time.Now())
	orderID, err := c.Gateway.CreateOrder(ctx, minorUnits(req.Amount), c.Currency, receipt)
	if err != nil {
		if CodeOf(err) == "" {
			err = errorf(CodeGatewayError, "gateway order creation failed: %v", err)
		}
		return nil, err
	}

	payment := &models.Payment{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		Date:        time.Now(),
		Description: fmt.Sprintf("Payment for %s", lock.Term),
		Method:      req.Method,
		Amount:      req.Amount,
		Status:      models.PaymentStatusPending,
		Metadata: map[string]string{
			models.MetaOrderID:  orderID,
			models.MetaChargeID: charge.ID,
			models.MetaLedgerID: lock.ID,
		},
	}
	if err := c.Payments.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to record pending payment: %w", err)
	}
	if err := c.Ledger.LinkPayment(lock.ID, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to link payment to ledger entry: %w", err)
	}

	c.Logger.Info("gateway order opened",
		zap.String("studentID", studentID),
		zap.String("chargeID", charge.ID),
		zap.String("orderID", orderID),
		zap.String("paymentID", payment.ID))

	return &models.PaymentResult{
		PaymentID: payment.ID,
		OrderID:   orderID,
		Amount:    req.Amount,
		Currency:  c.Currency,
		Status:    models.PaymentStatusPending,
	}, nil
}

// confirmGatewayPayment verifies the gateway signature, completes the Pending
// payment and finalizes the ledger entry.
func (c *TransactionCoordinator) confirmGatewayPayment(ctx context.Context, studentID string, charge *models.Charge, lock *models.LedgerEntry, req models.PaymentRequest) (*models.PaymentResult, error) {
	if !VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, c.Secret) {
		return nil, newError(CodeInvalidPaymentSignature, "gateway signature verification failed")
	}

	payment, err := c.Payments.FindPendingByOrderID(studentID, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("payment lookup failed: %w", err)
	}
	if payment == nil {
		return nil, errorf(CodePaymentNotFound, "no pending payment for order %s", req.RazorpayOrderID)
	}

	now := time.Now()
	payment.Status = models.PaymentStatusCompleted
	payment.Date = now
	payment.Description = fmt.Sprintf("Payment for %s", lock.Term)
	if payment.Metadata == nil {
		payment.Metadata = map[string]string{}
	}
	payment.Metadata[models.MetaPaymentID] = req.RazorpayPaymentID
	payment.Metadata[models.MetaSignature] = req.RazorpaySignature
	if err := c.Payments.Update(payment); err != nil {
		return nil, fmt.Errorf("failed to complete payment record: %w", err)
	}

	if err := c.Ledger.Finalize(lock.ID, payment.ID, now); err != nil {
		return nil, fmt.Errorf("failed to finalize ledger entry: %w", err)
	}

	c.Logger.Info("gateway payment confirmed",
		zap.String("studentID", studentID),
		zap.String("chargeID", charge.ID),
		zap.String("orderID", req.RazorpayOrderID),
		zap.String("paymentID", payment.ID))
	c.notifyPaid(studentID, charge, payment)

	return &models.PaymentResult{
		PaymentID: payment.ID,
		OrderID:   req.RazorpayOrderID,
		Amount:    payment.Amount,
		Currency:  c.Currency,
		Status:    models.PaymentStatusCompleted,
	}, nil
}

// settleDirect records a completed payment and finalizes the ledger entry in
// a single step for non-gateway methods.
func (c *TransactionCoordinator) settleDirect(_ context.Context, studentID string, charge *models.Charge, lock *models.LedgerEntry, req models.PaymentRequest) (*models.PaymentResult, error) {
	now := time.Now()
	payment := &models.Payment{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		Date:        now,
		Description: fmt.Sprintf("Payment for %s", lock.Term),
		Method:      req.Method,
		Amount:      req.Amount,
		Status:      models.PaymentStatusCompleted,
		Metadata: map[string]string{
			models.MetaChargeID: charge.ID,
			models.MetaLedgerID: lock.ID,
		},
	}
	if err := c.Payments.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err := c.Ledger.Finalize(lock.ID, payment.ID, now); err != nil {
		return nil, fmt.Errorf("failed to finalize ledger entry: %w", err)
	}

	c.Logger.Info("direct payment settled",
		zap.String("studentID", studentID),
		zap.String("chargeID", charge.ID),
		zap.String("paymentID", payment.ID),
		zap.String("method", string(req.Method)))
	c.notifyPaid(studentID, charge, payment)

	return &models.PaymentResult{
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Currency:  c.Currency,
		Status:    models.PaymentStatusCompleted,
	}, nil
}

// notifyPaid sends a fire-and-forget completion push. Delivery failures are
// logged and never affect the transaction outcome.
func (c *TransactionCoordinator) notifyPaid(studentID string, charge *models.Charge, payment *models.Payment) {
	if c.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		body := fmt.Sprintf("Your payment of %.2f for %s was received.", payment.Amount, charge.Title)
		data := map[string]string{
			"paymentId": payment.ID,
			"chargeId":  charge.ID,
		}
		if err := c.Notifier.SendStudentPush(ctx, studentID, "Payment received", body, data); err != nil {
			c.Logger.Warn("payment notification failed",
				zap.String("studentID", studentID), zap.Error(err))
		}
	}()
}

// minorUnits converts a decimal amount to the gateway's minor-unit convention.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// receiptTag builds the gateway receipt reference from a truncated student id
// and the current time.
func receiptTag(studentID string, at time.Time) string {
	id := studentID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("rcpt_%s_%d", id, at.Unix())
}
