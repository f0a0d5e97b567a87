package usecase

import (
	"pocketledger/pkg/logger"
	"pocketledger/pkg/metrics"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
)

// BatchResult summarizes one batch for logging and ops counters; callers
// do not branch on it.
type BatchResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Escalated int `json:"escalated"`
	Archived  int `json:"archived"`
	Failed    int `json:"failed"`
}

// ActionExecutor runs one evaluation batch. Actions execute sequentially in
// the order supplied (side effects on the dedupe key space must be
// serialized within a batch), and each action fails alone: a repository
// error on one risk condition never blocks the next.
type ActionExecutor struct {
	controller *IdempotencyController
	repo       persistent.NotificationRepository
	logger     *logger.Logger
}

func NewActionExecutor(controller *IdempotencyController, repo persistent.NotificationRepository, log *logger.Logger) *ActionExecutor {
	return &ActionExecutor{
		controller: controller,
		repo:       repo,
		logger:     log,
	}
}

func (e *ActionExecutor) Execute(batch *entity.ActionBatch) BatchResult {
	var result BatchResult

	for i, action := range batch.Actions {
		switch a := action.(type) {
		case entity.CreateAction:
			e.applyCandidate(batch.TenantID, i, "create", a.Payload, &result)

		case entity.UpdateAction:
			e.applyCandidate(batch.TenantID, i, "update", a.Payload, &result)

		case entity.ArchiveAction:
			closed, err := e.repo.ArchiveMatching(batch.TenantID, a.EventType, a.ReferenceID)
			if err != nil {
				e.logger.Error("Action %d (archive %s/%s) failed for tenant=%s: %v",
					i, a.EventType, a.ReferenceID, batch.TenantID, err)
				metrics.ActionOutcomes.WithLabelValues("archive", "failed").Inc()
				result.Failed++
				continue
			}
			e.logger.Info("Archived %d notification(s) for tenant=%s event=%s reference=%s",
				closed, batch.TenantID, a.EventType, a.ReferenceID)
			metrics.ActionOutcomes.WithLabelValues("archive", "archived").Inc()
			result.Archived++

		case entity.SkipAction:
			metrics.ActionOutcomes.WithLabelValues("skip", "skipped").Inc()
			result.Skipped++
		}
	}

	e.logger.Info("Evaluation batch done for tenant=%s: created=%d updated=%d skipped=%d escalated=%d archived=%d failed=%d",
		batch.TenantID, result.Created, result.Updated, result.Skipped, result.Escalated, result.Archived, result.Failed)
	return result
}

func (e *ActionExecutor) applyCandidate(tenantID string, index int, kind string, payload entity.ActionPayload, result *BatchResult) {
	outcome, err := e.controller.Apply(tenantID, payload)
	if err != nil {
		e.logger.Error("Action %d (%s %s) failed for tenant=%s: %v", index, kind, payload.EventType, tenantID, err)
		metrics.ActionOutcomes.WithLabelValues(kind, "failed").Inc()
		result.Failed++
		return
	}

	metrics.ActionOutcomes.WithLabelValues(kind, string(outcome)).Inc()
	switch outcome {
	case DecisionCreate:
		result.Created++
	case DecisionUpdateExisting:
		result.Updated++
	case DecisionEscalateCreate:
		result.Escalated++
	default:
		result.Skipped++
	}
}
