package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"pocketledger/pkg/logger"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
)

// ArchiveUploader is the slice of the S3 client the retention export needs.
type ArchiveUploader interface {
	Upload(key string, body []byte, contentType string) (string, error)
	Delete(key string) error
}

type ExportResult struct {
	Exported int    `json:"exported"`
	Location string `json:"location,omitempty"`
}

type AlertsUseCase interface {
	// ListAlerts returns the tenant's open notifications, precedence-
	// filtered unless includeHidden is set.
	ListAlerts(tenantID string, includeHidden bool) ([]*entity.Notification, error)
	MarkRead(tenantID, id string) error
	Dismiss(tenantID, id string) error
	// ExportDismissed ships dismissed rows older than the cutoff to the
	// archive bucket and purges them.
	ExportDismissed(olderThan time.Duration) (*ExportResult, error)
}

type alertsUseCase struct {
	repo     persistent.NotificationRepository
	uploader ArchiveUploader
	logger   *logger.Logger
}

func NewAlertsUseCase(repo persistent.NotificationRepository, uploader ArchiveUploader, log *logger.Logger) AlertsUseCase {
	return &alertsUseCase{
		repo:     repo,
		uploader: uploader,
		logger:   log,
	}
}

func (uc *alertsUseCase) ListAlerts(tenantID string, includeHidden bool) ([]*entity.Notification, error) {
	open, err := uc.repo.ListOpen(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open notifications: %w", err)
	}
	if includeHidden {
		return open, nil
	}
	return FilterPrecedence(open), nil
}

func (uc *alertsUseCase) MarkRead(tenantID, id string) error {
	return uc.repo.MarkRead(tenantID, id)
}

func (uc *alertsUseCase) Dismiss(tenantID, id string) error {
	return uc.repo.Dismiss(tenantID, id)
}

func (uc *alertsUseCase) ExportDismissed(olderThan time.Duration) (*ExportResult, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	rows, err := uc.repo.ListDismissedBefore(cutoff, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list dismissed notifications: %w", err)
	}
	if len(rows) == 0 {
		return &ExportResult{}, nil
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	key := fmt.Sprintf("alert-archive/%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	location, err := uc.uploader.Upload(key, body, "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	// Purge only after the upload is durable. If the purge fails the rows
	// remain and a retry re-exports them, so roll back the orphaned object
	// rather than leaving duplicates in the archive.
	purged, err := uc.repo.DeleteDismissedBefore(cutoff)
	if err != nil {
		if delErr := uc.uploader.Delete(key); delErr != nil {
			uc.logger.Warn("Failed to roll back export object %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("purge after export failed: %w", err)
	}

	uc.logger.Info("Exported %d dismissed notification(s) to %s, purged %d", len(rows), location, purged)
	return &ExportResult{Exported: len(rows), Location: location}, nil
}
