package entity

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityAction  Severity = "action"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityAction:
		return true
	}
	return false
}

// Escalates reports whether a candidate at severity next warrants a fresh
// alert after the user dismissed one at severity previous. The only
// recognized transition is warning to action; everything else stays
// dismissed.
func Escalates(previous, next Severity) bool {
	return previous == SeverityWarning && next == SeverityAction
}

type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusArchived Status = "archived"
)

// Event types with a precedence relationship. Other event types exist
// (plain informational alerts); the filter lets those through untouched.
const (
	EventPaymentOverdue     = "PAYMENT_OVERDUE"
	EventMonthAtRisk        = "MONTH_AT_RISK"
	EventMonthAtRiskPreview = "MONTH_AT_RISK_PREVIEW"
	EventCoverageRisk       = "UPCOMING_COVERAGE_RISK"
	EventRecurringLate      = "RECURRING_LATE_PAYMENT"
)

// Notification is a persistent, tenant-scoped alert. DismissedAt non-nil
// means the row is archived ("closed"); among non-archived rows the
// (tenant_id, dedupe_key) pair is unique.
type Notification struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenant_id"`
	EventType   string                 `json:"event_type"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	ReferenceID string                 `json:"reference_id,omitempty"`
	DedupeKey   string                 `json:"dedupe_key"`
	Severity    Severity               `json:"severity"`
	MessageKey  string                 `json:"message_key"`
	Params      map[string]interface{} `json:"params,omitempty"`
	CTALabelKey string                 `json:"cta_label_key,omitempty"`
	CTATarget   string                 `json:"cta_target,omitempty"`
	Status      Status                 `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	DismissedAt *time.Time             `json:"dismissed_at,omitempty"`
}

func (n *Notification) Open() bool {
	return n.DismissedAt == nil
}
