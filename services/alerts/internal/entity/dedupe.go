package entity

import (
	"fmt"
	"time"
)

// TimeWindow is the granularity at which a recurring condition counts as
// "the same" alert.
type TimeWindow string

const (
	WindowMonth TimeWindow = "month"
	WindowDay   TimeWindow = "day"
	WindowNone  TimeWindow = "none"
)

// EntityTypeGeneric is the entity type used when an alert is not about a
// specific domain object.
const EntityTypeGeneric = "generic"

// windowSentinel is the time bucket for window-less keys.
const windowSentinel = "always"

var eventWindows = map[string]TimeWindow{
	EventPaymentOverdue:     WindowDay,
	EventMonthAtRisk:        WindowMonth,
	EventMonthAtRiskPreview: WindowMonth,
	EventCoverageRisk:       WindowMonth,
	EventRecurringLate:      WindowMonth,
}

// WindowForEvent returns the time window an event type dedupes over.
// Budget conditions are monthly by default.
func WindowForEvent(eventType string) TimeWindow {
	if w, ok := eventWindows[eventType]; ok {
		return w
	}
	return WindowMonth
}

// BuildDedupeKey is the single source of truth for the canonical alert
// identity "{eventType}:{entityType}:{entityId}:{timeBucket}". It is pure:
// the controller re-derives the same key on every evaluation instead of
// persisting it ahead of time.
func BuildDedupeKey(eventType, entityType, entityID string, window TimeWindow, referenceDate time.Time) string {
	if entityType == "" {
		entityType = EntityTypeGeneric
	}

	var bucket string
	switch window {
	case WindowMonth:
		bucket = referenceDate.Format("2006-01")
	case WindowDay:
		bucket = referenceDate.Format("2006-01-02")
	default:
		bucket = windowSentinel
	}

	return fmt.Sprintf("%s:%s:%s:%s", eventType, entityType, entityID, bucket)
}

// LegacyDedupeKey is the pre-bucket key form "{eventType}:{referenceId}".
// Retained for compatibility lookups only; new rows always get the
// canonical form.
func LegacyDedupeKey(eventType, referenceID string) string {
	return fmt.Sprintf("%s:%s", eventType, referenceID)
}
