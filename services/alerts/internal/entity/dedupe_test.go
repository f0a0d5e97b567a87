package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDedupeKey_MonthWindow(t *testing.T) {
	ref := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	key := BuildDedupeKey("MONTH_AT_RISK", "month", "", WindowMonth, ref)
	assert.Equal(t, "MONTH_AT_RISK:month::2025-01", key)

	// Any other day in the same month yields the identical key
	for _, day := range []int{1, 9, 28, 31} {
		other := time.Date(2025, 1, day, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, key, BuildDedupeKey("MONTH_AT_RISK", "month", "", WindowMonth, other))
	}
}

func TestBuildDedupeKey_DayWindow(t *testing.T) {
	ref := time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC)

	key := BuildDedupeKey("PAYMENT_OVERDUE", "transaction", "tx-42", WindowDay, ref)
	assert.Equal(t, "PAYMENT_OVERDUE:transaction:tx-42:2025-03-07", key)

	// Same day, different hour: identical
	later := time.Date(2025, 3, 7, 22, 15, 0, 0, time.UTC)
	assert.Equal(t, key, BuildDedupeKey("PAYMENT_OVERDUE", "transaction", "tx-42", WindowDay, later))

	// Next day: different
	next := ref.AddDate(0, 0, 1)
	assert.NotEqual(t, key, BuildDedupeKey("PAYMENT_OVERDUE", "transaction", "tx-42", WindowDay, next))
}

func TestBuildDedupeKey_NoWindow(t *testing.T) {
	key := BuildDedupeKey("WELCOME", "generic", "", WindowNone, time.Now())
	assert.Equal(t, "WELCOME:generic::always", key)
}

func TestBuildDedupeKey_EntityTypeDefaults(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	key := BuildDedupeKey("UPCOMING_COVERAGE_RISK", "", "cat-7", WindowMonth, ref)
	assert.Equal(t, "UPCOMING_COVERAGE_RISK:generic:cat-7:2025-06", key)
}

func TestLegacyDedupeKey(t *testing.T) {
	assert.Equal(t, "PAYMENT_OVERDUE:ref-1", LegacyDedupeKey("PAYMENT_OVERDUE", "ref-1"))
}

func TestWindowForEvent(t *testing.T) {
	assert.Equal(t, WindowDay, WindowForEvent(EventPaymentOverdue))
	assert.Equal(t, WindowMonth, WindowForEvent(EventMonthAtRisk))
	assert.Equal(t, WindowMonth, WindowForEvent("SOME_FUTURE_EVENT"))
}
