package ledgerRepo

import (
	"errors"
	"time"

	"campushub/models"
)

// ErrLockHeld is returned by Acquire when a Pending entry already exists for
// the same (student, charge) pair. The partial unique index makes this check
// atomic, so two concurrent attempts cannot both acquire.
var ErrLockHeld = errors.New("a pending ledger entry already exists for this student and charge")

// LedgerRepository defines persistence for ledger entries. A Pending entry is
// the in-flight payment lock; a Paid entry is the completion record.
type LedgerRepository interface {
	// Acquire inserts a new Pending entry, failing with ErrLockHeld when one
	// already exists for the pair.
	Acquire(entry *models.LedgerEntry) error
	// FindActiveLock returns the Pending entry for the pair, if any.
	FindActiveLock(studentID, chargeID string) (*models.LedgerEntry, error)
	// FindPaid returns the Paid entry for the pair, if any.
	FindPaid(studentID, chargeID string) (*models.LedgerEntry, error)
	// LinkPayment attaches a payment id to a Pending entry.
	LinkPayment(entryID, paymentID string) error
	// Finalize transitions a Pending entry to Paid, recording the settling
	// payment and timestamp.
	Finalize(entryID, paymentID string, paidAt time.Time) error
	// Release deletes a Pending entry on rollback or stale-lock reclamation.
	Release(entryID string) error
	// DeleteStale removes all Pending entries issued before the cutoff and
	// returns how many were reclaimed.
	DeleteStale(cutoff time.Time) (int64, error)
	// ListByStudent returns all entries for a student, newest first.
	ListByStudent(studentID string) ([]models.LedgerEntry, error)
}
