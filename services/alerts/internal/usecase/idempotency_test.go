package usecase

import (
	"testing"

	"pocketledger/services/alerts/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenant = "household-1"

func monthRiskPayload(severity entity.Severity) entity.ActionPayload {
	return entity.ActionPayload{
		EventType:  entity.EventMonthAtRisk,
		EntityType: "month",
		MessageKey: "alerts.month_at_risk",
		Params:     map[string]interface{}{"projected": "-120.50"},
		Severity:   severity,
	}
}

func TestApply_CreatesWhenNoHistory(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	outcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))

	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, outcome)

	open := repo.openRows(testTenant)
	require.Len(t, open, 1)
	assert.Equal(t, entity.StatusUnread, open[0].Status)
	assert.Equal(t, entity.SeverityWarning, open[0].Severity)
	assert.NotEmpty(t, open[0].DedupeKey)
}

func TestApply_IdempotentCreation(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	// Same condition evaluated N times with no dismissal in between
	firstOutcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, firstOutcome)

	firstID := repo.openRows(testTenant)[0].ID

	for i := 0; i < 5; i++ {
		payload := monthRiskPayload(entity.SeverityWarning)
		payload.MessageKey = "alerts.month_at_risk.v2"
		outcome, err := controller.Apply(testTenant, payload)
		require.NoError(t, err)
		assert.Equal(t, DecisionUpdateExisting, outcome)
	}

	// Exactly one open row, same identity, refreshed content
	open := repo.openRows(testTenant)
	require.Len(t, open, 1)
	assert.Equal(t, firstID, open[0].ID)
	assert.Equal(t, "alerts.month_at_risk.v2", open[0].MessageKey)
}

func TestApply_UpdateResurfacesReadAlert(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	_, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)

	id := repo.openRows(testTenant)[0].ID
	require.NoError(t, repo.MarkRead(testTenant, id))

	// Condition still holds on the next evaluation: it must surface again
	outcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)
	assert.Equal(t, DecisionUpdateExisting, outcome)

	row := repo.openRows(testTenant)[0]
	assert.Equal(t, entity.StatusUnread, row.Status)
	assert.Nil(t, row.ReadAt)
}

func TestApply_NoResurrectionWithoutEscalation(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	_, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)

	id := repo.openRows(testTenant)[0].ID
	require.NoError(t, repo.Dismiss(testTenant, id))

	// Identical severity after dismissal: do not re-annoy the user
	outcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, outcome)
	assert.Empty(t, repo.openRows(testTenant))
}

func TestApply_EscalationCreatesAnew(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	_, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)

	dismissedID := repo.openRows(testTenant)[0].ID
	require.NoError(t, repo.Dismiss(testTenant, dismissedID))

	// The condition got strictly worse since the dismissal
	outcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityAction))
	require.NoError(t, err)
	assert.Equal(t, DecisionEscalateCreate, outcome)

	open := repo.openRows(testTenant)
	require.Len(t, open, 1)
	assert.NotEqual(t, dismissedID, open[0].ID)
	assert.Equal(t, entity.SeverityAction, open[0].Severity)

	// The archived row is untouched
	archived, err := repo.FindAnyByDedupeKey(testTenant, open[0].DedupeKey)
	require.NoError(t, err)
	assert.NotNil(t, archived)
}

func TestApply_LowerSeverityTransitionsStaySkipped(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	_, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityInfo))
	require.NoError(t, err)
	require.NoError(t, repo.Dismiss(testTenant, repo.openRows(testTenant)[0].ID))

	// info -> warning is not the documented escalation
	outcome, err := controller.Apply(testTenant, monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, outcome)
}

func TestApply_ConflictOnInsertIsBenignSkip(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	// Simulate the losing side of a concurrent evaluation: another row
	// lands between Decide's read and the insert.
	payload := monthRiskPayload(entity.SeverityWarning)
	decision, err := controller.Decide(testTenant, payload)
	require.NoError(t, err)
	require.Equal(t, DecisionCreate, decision.Kind)

	winner := controller.buildNotification(testTenant, decision.DedupeKey, payload)
	require.NoError(t, repo.Insert(winner))

	outcome, err := controller.Apply(testTenant, payload)
	require.NoError(t, err)
	// Apply re-decides: the open row now exists, so this lands as update.
	assert.Equal(t, DecisionUpdateExisting, outcome)

	// Drive the insert path directly into the conflict: a fresh controller
	// whose Decide saw no row, then the winner appears.
	raceRepo := newFakeRepo()
	raceController := NewIdempotencyController(raceRepo, testLogger())
	raceDecision, err := raceController.Decide(testTenant, payload)
	require.NoError(t, err)

	require.NoError(t, raceRepo.Insert(raceController.buildNotification(testTenant, raceDecision.DedupeKey, payload)))
	err = raceRepo.Insert(raceController.buildNotification(testTenant, raceDecision.DedupeKey, payload))
	assert.Error(t, err)
}

func TestDecide_LegacyKeyLookup(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	// A pre-migration row carrying the legacy key form
	legacy := &entity.Notification{
		TenantID:    testTenant,
		EventType:   entity.EventPaymentOverdue,
		EntityType:  "transaction",
		ReferenceID: "tx-9",
		DedupeKey:   entity.LegacyDedupeKey(entity.EventPaymentOverdue, "tx-9"),
		Severity:    entity.SeverityAction,
		MessageKey:  "alerts.overdue",
		Status:      entity.StatusUnread,
	}
	require.NoError(t, repo.Insert(legacy))

	payload := entity.ActionPayload{
		EventType:   entity.EventPaymentOverdue,
		EntityType:  "transaction",
		EntityID:    "tx-9",
		ReferenceID: "tx-9",
		MessageKey:  "alerts.overdue",
		Severity:    entity.SeverityAction,
	}

	decision, err := controller.Decide(testTenant, payload)
	require.NoError(t, err)
	assert.Equal(t, DecisionUpdateExisting, decision.Kind)
	assert.Equal(t, legacy.DedupeKey, decision.Existing.DedupeKey)
}

func TestApply_TenantsAreIsolated(t *testing.T) {
	repo := newFakeRepo()
	controller := NewIdempotencyController(repo, testLogger())

	_, err := controller.Apply("household-1", monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)

	// Same condition for another tenant creates its own row
	outcome, err := controller.Apply("household-2", monthRiskPayload(entity.SeverityWarning))
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, outcome)
	assert.Len(t, repo.openRows("household-1"), 1)
	assert.Len(t, repo.openRows("household-2"), 1)
}
