package usecase

import (
	"errors"
	"fmt"
	"time"

	"pocketledger/pkg/logger"
	"pocketledger/pkg/metrics"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
)

type DecisionKind string

const (
	DecisionCreate         DecisionKind = "create"
	DecisionUpdateExisting DecisionKind = "update_existing"
	DecisionSkip           DecisionKind = "skip"
	DecisionEscalateCreate DecisionKind = "escalate_create"
)

// Decision is the idempotency verdict for one candidate alert.
type Decision struct {
	Kind      DecisionKind
	DedupeKey string
	// Existing is the open row to refresh for DecisionUpdateExisting, or
	// the archived row that blocked (or justified escalating past) the
	// candidate.
	Existing *entity.Notification
}

// IdempotencyController decides whether a candidate alert creates a row,
// refreshes the open one, is dropped, or escalates past a dismissal.
// It holds no locks: when two evaluations race through the same decision,
// the repository's uniqueness constraint arbitrates and the loser's insert
// comes back as a benign skip.
type IdempotencyController struct {
	repo   persistent.NotificationRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewIdempotencyController(repo persistent.NotificationRepository, log *logger.Logger) *IdempotencyController {
	return &IdempotencyController{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Decide runs the four-way decision for a candidate. Reads only.
func (c *IdempotencyController) Decide(tenantID string, payload entity.ActionPayload) (Decision, error) {
	now := c.now().UTC()
	dedupeKey := entity.BuildDedupeKey(payload.EventType, payload.EntityType, payload.EntityID, payload.Window(), now)

	open, err := c.repo.FindOpenByDedupeKey(tenantID, dedupeKey)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to look up open notification: %w", err)
	}
	if open == nil && payload.ReferenceID != "" {
		// Rows written before the canonical key format still carry the
		// legacy "{event}:{referenceId}" key.
		open, err = c.repo.FindOpenByDedupeKey(tenantID, entity.LegacyDedupeKey(payload.EventType, payload.ReferenceID))
		if err != nil {
			return Decision{}, fmt.Errorf("failed to look up open notification by legacy key: %w", err)
		}
	}
	if open != nil {
		// The condition is still active: refresh content and resurface it
		// even if the user had read it.
		return Decision{Kind: DecisionUpdateExisting, DedupeKey: dedupeKey, Existing: open}, nil
	}

	any, err := c.repo.FindAnyByDedupeKey(tenantID, dedupeKey)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to look up notification history: %w", err)
	}
	if any == nil && payload.ReferenceID != "" {
		any, err = c.repo.FindAnyByDedupeKey(tenantID, entity.LegacyDedupeKey(payload.EventType, payload.ReferenceID))
		if err != nil {
			return Decision{}, fmt.Errorf("failed to look up notification history by legacy key: %w", err)
		}
	}
	if any == nil {
		return Decision{Kind: DecisionCreate, DedupeKey: dedupeKey}, nil
	}

	// The user already dismissed this condition. Only a strict worsening
	// (warning to action) earns a fresh alert.
	if entity.Escalates(any.Severity, payload.Severity) {
		return Decision{Kind: DecisionEscalateCreate, DedupeKey: dedupeKey, Existing: any}, nil
	}
	return Decision{Kind: DecisionSkip, DedupeKey: dedupeKey, Existing: any}, nil
}

// Apply decides and performs the store operation. The returned kind is the
// actual outcome: an insert that loses the uniqueness race degrades to
// DecisionSkip rather than an error.
func (c *IdempotencyController) Apply(tenantID string, payload entity.ActionPayload) (DecisionKind, error) {
	decision, err := c.Decide(tenantID, payload)
	if err != nil {
		return "", err
	}

	switch decision.Kind {
	case DecisionUpdateExisting:
		err := c.repo.Update(tenantID, decision.Existing.ID, persistent.NotificationUpdate{
			MessageKey:  payload.MessageKey,
			Params:      sanitizeParams(payload.Params),
			Severity:    payload.Severity,
			CTALabelKey: payload.CTALabelKey,
			CTATarget:   payload.CTATarget,
		})
		if err != nil {
			return "", fmt.Errorf("failed to refresh notification %s: %w", decision.Existing.ID, err)
		}
		return DecisionUpdateExisting, nil

	case DecisionCreate, DecisionEscalateCreate:
		notification := c.buildNotification(tenantID, decision.DedupeKey, payload)
		if err := c.repo.Insert(notification); err != nil {
			if errors.Is(err, persistent.ErrDuplicateDedupeKey) {
				// A concurrent evaluation won the race. The alert exists,
				// which is all the caller wanted.
				metrics.DedupeConflicts.Inc()
				c.logger.Debug("Dedupe conflict for tenant=%s key=%s, treating as skip", tenantID, decision.DedupeKey)
				return DecisionSkip, nil
			}
			return "", fmt.Errorf("failed to insert notification: %w", err)
		}
		if decision.Kind == DecisionEscalateCreate {
			c.logger.Info("Escalated dismissed alert for tenant=%s key=%s from %s to %s",
				tenantID, decision.DedupeKey, decision.Existing.Severity, payload.Severity)
		}
		return decision.Kind, nil

	default:
		return DecisionSkip, nil
	}
}

func (c *IdempotencyController) buildNotification(tenantID, dedupeKey string, payload entity.ActionPayload) *entity.Notification {
	entityType := payload.EntityType
	if entityType == "" {
		entityType = entity.EntityTypeGeneric
	}

	return &entity.Notification{
		TenantID:    tenantID,
		EventType:   payload.EventType,
		EntityType:  entityType,
		EntityID:    payload.EntityID,
		ReferenceID: payload.ReferenceID,
		DedupeKey:   dedupeKey,
		Severity:    payload.Severity,
		MessageKey:  payload.MessageKey,
		Params:      sanitizeParams(payload.Params),
		CTALabelKey: payload.CTALabelKey,
		CTATarget:   payload.CTATarget,
		Status:      entity.StatusUnread,
		CreatedAt:   c.now().UTC(),
	}
}
