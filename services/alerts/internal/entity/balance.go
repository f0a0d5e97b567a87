package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceState is the last observed sign of a tenant's projected month-end
// balance. Only the latest state is kept per (tenant, month).
type BalanceState string

const (
	BalanceNegative    BalanceState = "NEGATIVE"
	BalanceNonNegative BalanceState = "NON_NEGATIVE"
)

// BalanceStateKey builds the cache key "{tenantId}|{monthKey}".
func BalanceStateKey(tenantID, monthKey string) string {
	return fmt.Sprintf("%s|%s", tenantID, monthKey)
}

// StateForBalance classifies a projected balance.
func StateForBalance(projected decimal.Decimal) BalanceState {
	if projected.IsNegative() {
		return BalanceNegative
	}
	return BalanceNonNegative
}

type ToastKind string

const (
	ToastRiskNegative   ToastKind = "month_risk_negative"
	ToastMonthRecovered ToastKind = "month_recovered"
)

// Toast is a one-shot transition message. It is never persisted; firing is
// gated by the stored BalanceState.
type Toast struct {
	Kind       ToastKind `json:"kind"`
	TenantID   string    `json:"tenant_id"`
	MonthKey   string    `json:"month_key"`
	MessageKey string    `json:"message_key"`
}
