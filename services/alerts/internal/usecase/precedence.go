package usecase

import "pocketledger/services/alerts/internal/entity"

// The four cash-flow event classes are symptoms of the same underlying
// problem; only the most actionable one is surfaced per overlapping cause.
type precedenceClass int

const (
	classOther precedenceClass = iota
	classOverdue
	classMonthAtRisk
	classCoverageRisk
	classRecurringLate
)

func classOf(eventType string) precedenceClass {
	switch eventType {
	case entity.EventPaymentOverdue:
		return classOverdue
	case entity.EventMonthAtRisk, entity.EventMonthAtRiskPreview:
		return classMonthAtRisk
	case entity.EventCoverageRisk:
		return classCoverageRisk
	case entity.EventRecurringLate:
		return classRecurringLate
	default:
		return classOther
	}
}

// FilterPrecedence hides lower-priority alerts subsumed by an open
// higher-priority alert about the same root cause. Pure, no I/O, preserves
// the input order of the survivors. Event types outside the four classes
// always pass.
func FilterPrecedence(open []*entity.Notification) []*entity.Notification {
	var hasOverdue, hasMonthAtRisk, hasCoverageRisk bool
	overdueEntities := make(map[string]struct{})

	for _, n := range open {
		switch classOf(n.EventType) {
		case classOverdue:
			hasOverdue = true
			if n.EntityID != "" {
				overdueEntities[n.EntityID] = struct{}{}
			}
			// An overdue alert may enumerate several underlying
			// transactions beyond its own entity id.
			for _, id := range overdueTransactionIDs(n) {
				overdueEntities[id] = struct{}{}
			}
		case classMonthAtRisk:
			hasMonthAtRisk = true
		case classCoverageRisk:
			hasCoverageRisk = true
		}
	}

	filtered := make([]*entity.Notification, 0, len(open))
	for _, n := range open {
		switch classOf(n.EventType) {
		case classOverdue, classMonthAtRisk, classOther:
			filtered = append(filtered, n)
		case classCoverageRisk:
			if hasOverdue || hasMonthAtRisk {
				continue
			}
			if _, covered := overdueEntities[n.EntityID]; covered {
				continue
			}
			filtered = append(filtered, n)
		case classRecurringLate:
			if hasOverdue || hasMonthAtRisk || hasCoverageRisk {
				continue
			}
			filtered = append(filtered, n)
		}
	}
	return filtered
}

func overdueTransactionIDs(n *entity.Notification) []string {
	raw, ok := n.Params["transaction_ids"]
	if !ok {
		return nil
	}

	// Params round-trip through JSON, so the list arrives as []interface{}.
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
