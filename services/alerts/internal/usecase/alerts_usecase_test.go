package usecase

import (
	"fmt"
	"testing"
	"time"

	"pocketledger/services/alerts/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	keys    []string
	bodies  [][]byte
	deleted []string
}

func (u *fakeUploader) Upload(key string, body []byte, contentType string) (string, error) {
	u.keys = append(u.keys, key)
	u.bodies = append(u.bodies, body)
	return "https://archive.example/" + key, nil
}

func (u *fakeUploader) Delete(key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

// keyedAlert builds an open alert with a distinct dedupe key so multiple
// rows can coexist in the fake repository.
func keyedAlert(eventType, entityID string) *entity.Notification {
	alert := openAlert(eventType, entityID)
	alert.DedupeKey = eventType + ":" + entityID
	return alert
}

func TestListAlerts_AppliesPrecedenceFilter(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAlertsUseCase(repo, &fakeUploader{}, testLogger())

	require.NoError(t, repo.Insert(keyedAlert(entity.EventPaymentOverdue, "tx-A")))
	require.NoError(t, repo.Insert(keyedAlert(entity.EventRecurringLate, "tx-B")))

	alerts, err := uc.ListAlerts(testTenant, false)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.EventPaymentOverdue, alerts[0].EventType)

	// include_hidden bypasses the filter
	all, err := uc.ListAlerts(testTenant, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMarkReadAndDismiss(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAlertsUseCase(repo, &fakeUploader{}, testLogger())

	alert := keyedAlert(entity.EventMonthAtRisk, "2025-05")
	require.NoError(t, repo.Insert(alert))

	require.NoError(t, uc.MarkRead(testTenant, alert.ID))
	open := repo.openRows(testTenant)
	require.Len(t, open, 1)
	assert.Equal(t, entity.StatusRead, open[0].Status)
	assert.NotNil(t, open[0].ReadAt)

	require.NoError(t, uc.Dismiss(testTenant, alert.ID))
	assert.Empty(t, repo.openRows(testTenant))
}

func TestDismiss_UnknownIDFails(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAlertsUseCase(repo, &fakeUploader{}, testLogger())

	assert.Error(t, uc.Dismiss(testTenant, "missing"))
}

func TestExportDismissed(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	uc := NewAlertsUseCase(repo, uploader, testLogger())

	old := keyedAlert(entity.EventMonthAtRisk, "2025-04")
	require.NoError(t, repo.Insert(old))
	require.NoError(t, repo.Dismiss(testTenant, old.ID))
	// Backdate the dismissal past the cutoff
	for _, row := range repo.rows {
		if row.ID == old.ID {
			past := time.Now().UTC().Add(-48 * time.Hour)
			row.DismissedAt = &past
		}
	}

	fresh := keyedAlert(entity.EventPaymentOverdue, "tx-A")
	require.NoError(t, repo.Insert(fresh))

	result, err := uc.ExportDismissed(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Exported)
	assert.Contains(t, result.Location, "alert-archive/")
	require.Len(t, uploader.bodies, 1)
	assert.Contains(t, string(uploader.bodies[0]), old.ID)

	// The old row is purged, the open one is untouched
	assert.Len(t, repo.rows, 1)
	assert.Equal(t, fresh.ID, repo.rows[0].ID)
}

func TestExportDismissed_PurgeFailureRollsBackObject(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	uc := NewAlertsUseCase(repo, uploader, testLogger())

	old := keyedAlert(entity.EventMonthAtRisk, "2025-03")
	require.NoError(t, repo.Insert(old))
	require.NoError(t, repo.Dismiss(testTenant, old.ID))
	for _, row := range repo.rows {
		if row.ID == old.ID {
			past := time.Now().UTC().Add(-48 * time.Hour)
			row.DismissedAt = &past
		}
	}

	repo.failDelete = fmt.Errorf("injected purge failure")

	_, err := uc.ExportDismissed(24 * time.Hour)
	require.Error(t, err)

	// The uploaded object was rolled back; the rows remain for the retry.
	require.Len(t, uploader.keys, 1)
	assert.Equal(t, uploader.keys, uploader.deleted)
	assert.Len(t, repo.rows, 1)
}

func TestExportDismissed_NothingToExport(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	uc := NewAlertsUseCase(repo, uploader, testLogger())

	result, err := uc.ExportDismissed(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Exported)
	assert.Empty(t, uploader.keys)
}
