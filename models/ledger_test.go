package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedgerEntryExpired(t *testing.T) {
	now := time.Now()
	timeout := 5 * time.Minute

	fresh := LedgerEntry{Status: LedgerStatusPending, IssuedAt: now.Add(-time.Minute)}
	assert.False(t, fresh.Expired(timeout, now))

	stale := LedgerEntry{Status: LedgerStatusPending, IssuedAt: now.Add(-10 * time.Minute)}
	assert.True(t, stale.Expired(timeout, now))

	boundary := LedgerEntry{Status: LedgerStatusPending, IssuedAt: now.Add(-timeout)}
	assert.False(t, boundary.Expired(timeout, now))

	paid := LedgerEntry{Status: LedgerStatusPaid, IssuedAt: now.Add(-time.Hour)}
	assert.False(t, paid.Expired(timeout, now))
}
