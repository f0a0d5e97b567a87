package usecase

import (
	"context"
	"fmt"

	"pocketledger/pkg/logger"
	"pocketledger/pkg/metrics"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/statecache"

	"github.com/shopspring/decimal"
)

// BalanceToastMachine gates one-shot transition toasts on the last stored
// balance state per (tenant, month). The stored state is the single source
// of truth for "have we already told the user this", so recomputing the
// projection any number of times fires each transition exactly once.
type BalanceToastMachine struct {
	store  statecache.Store
	logger *logger.Logger
}

func NewBalanceToastMachine(store statecache.Store, log *logger.Logger) *BalanceToastMachine {
	return &BalanceToastMachine{
		store:  store,
		logger: log,
	}
}

// Observe feeds a fresh projected balance into the machine. It returns the
// toast to show, or nil when nothing changed or the month is seen for the
// first time.
func (m *BalanceToastMachine) Observe(ctx context.Context, tenantID, monthKey string, projected decimal.Decimal) (*entity.Toast, error) {
	key := entity.BalanceStateKey(tenantID, monthKey)
	current := entity.StateForBalance(projected)

	previous, known, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance state: %w", err)
	}

	if !known {
		// First observation for this month: record, don't toast.
		if err := m.store.Set(ctx, key, current); err != nil {
			return nil, fmt.Errorf("failed to store balance state: %w", err)
		}
		return nil, nil
	}

	if previous == current {
		// No transition, and the write is skipped on purpose.
		return nil, nil
	}

	if err := m.store.Set(ctx, key, current); err != nil {
		return nil, fmt.Errorf("failed to store balance state: %w", err)
	}

	toast := &entity.Toast{
		TenantID: tenantID,
		MonthKey: monthKey,
	}
	if current == entity.BalanceNegative {
		toast.Kind = entity.ToastRiskNegative
		toast.MessageKey = "toasts.month_risk_negative"
	} else {
		toast.Kind = entity.ToastMonthRecovered
		toast.MessageKey = "toasts.month_recovered"
	}

	metrics.ToastsFired.WithLabelValues(string(toast.Kind)).Inc()
	m.logger.Info("Balance toast %s for tenant=%s month=%s (projected=%s)",
		toast.Kind, tenantID, monthKey, projected.String())
	return toast, nil
}

// Reset forgets the stored state for one month; the next observation is
// treated as the first.
func (m *BalanceToastMachine) Reset(ctx context.Context, tenantID, monthKey string) error {
	return m.store.Clear(ctx, entity.BalanceStateKey(tenantID, monthKey))
}

// ResetTenant forgets every month tracked for one tenant, leaving other
// tenants' states untouched.
func (m *BalanceToastMachine) ResetTenant(ctx context.Context, tenantID string) error {
	return m.store.ClearPrefix(ctx, entity.BalanceStateKey(tenantID, ""))
}

// ResetAll wipes every stored balance state across all tenants. Administrative
// use only; request handlers reset at most their own tenant.
func (m *BalanceToastMachine) ResetAll(ctx context.Context) error {
	return m.store.ClearAll(ctx)
}
