package persistent

import (
	"encoding/json"
	"errors"
	"time"

	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/model"

	"gorm.io/gorm"
)

// ErrDuplicateDedupeKey marks an insert that lost the race against a
// concurrent evaluation: the partial unique index on (tenant_id, dedupe_key)
// over open rows already holds this key.
var ErrDuplicateDedupeKey = errors.New("duplicate dedupe key among open notifications")

// ErrNotFound marks a direct mutation against a missing or foreign row.
var ErrNotFound = errors.New("notification not found")

// NotificationUpdate is the refresh applied when a still-active condition
// re-surfaces. The repository also forces status back to unread and clears
// read_at, so an already-read alert surfaces again.
type NotificationUpdate struct {
	MessageKey  string
	Params      map[string]interface{}
	Severity    entity.Severity
	CTALabelKey string
	CTATarget   string
}

type NotificationRepository interface {
	// FindOpenByDedupeKey returns the open row for the key, or nil.
	FindOpenByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error)
	// FindAnyByDedupeKey returns the most recent row for the key,
	// archived rows included, or nil.
	FindAnyByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error)
	// Insert persists a new row. Returns ErrDuplicateDedupeKey when an
	// open row with the same (tenant_id, dedupe_key) already exists.
	Insert(n *entity.Notification) error
	Update(tenantID, id string, fields NotificationUpdate) error
	// ArchiveMatching dismisses all open rows for (tenant, event,
	// reference) and returns how many it closed.
	ArchiveMatching(tenantID, eventType, referenceID string) (int64, error)

	ListOpen(tenantID string) ([]*entity.Notification, error)
	MarkRead(tenantID, id string) error
	Dismiss(tenantID, id string) error

	ListDismissedBefore(cutoff time.Time, limit int) ([]*entity.Notification, error)
	DeleteDismissedBefore(cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) FindOpenByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error) {
	var m model.NotificationModel
	err := r.db.
		Where("tenant_id = ? AND dedupe_key = ? AND dismissed_at IS NULL", tenantID, dedupeKey).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToNotificationEntity(&m), nil
}

func (r *notificationRepository) FindAnyByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error) {
	var m model.NotificationModel
	err := r.db.
		Where("tenant_id = ? AND dedupe_key = ?", tenantID, dedupeKey).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToNotificationEntity(&m), nil
}

func (r *notificationRepository) Insert(n *entity.Notification) error {
	m := ToNotificationModel(n)
	if err := r.db.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateDedupeKey
		}
		return err
	}
	*n = *ToNotificationEntity(m)
	return nil
}

func (r *notificationRepository) Update(tenantID, id string, fields NotificationUpdate) error {
	updates := map[string]interface{}{
		"message_key": fields.MessageKey,
		"severity":    string(fields.Severity),
		"status":      string(entity.StatusUnread),
		"read_at":     nil,
	}
	if fields.CTALabelKey != "" {
		updates["cta_label_key"] = fields.CTALabelKey
	}
	if fields.CTATarget != "" {
		updates["cta_target"] = fields.CTATarget
	}
	if fields.Params != nil {
		raw, err := json.Marshal(fields.Params)
		if err != nil {
			return err
		}
		updates["params"] = raw
	}

	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ArchiveMatching(tenantID, eventType, referenceID string) (int64, error) {
	now := time.Now().UTC()
	result := r.db.Model(&model.NotificationModel{}).
		Where("tenant_id = ? AND event_type = ? AND reference_id = ? AND dismissed_at IS NULL",
			tenantID, eventType, referenceID).
		Updates(map[string]interface{}{
			"status":       string(entity.StatusArchived),
			"dismissed_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) ListOpen(tenantID string) ([]*entity.Notification, error) {
	var models []model.NotificationModel
	err := r.db.
		Where("tenant_id = ? AND dismissed_at IS NULL", tenantID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]*entity.Notification, len(models))
	for i := range models {
		notifications[i] = ToNotificationEntity(&models[i])
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(tenantID, id string) error {
	now := time.Now().UTC()
	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND tenant_id = ? AND dismissed_at IS NULL", id, tenantID).
		Updates(map[string]interface{}{
			"status":  string(entity.StatusRead),
			"read_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) Dismiss(tenantID, id string) error {
	now := time.Now().UTC()
	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND tenant_id = ? AND dismissed_at IS NULL", id, tenantID).
		Updates(map[string]interface{}{
			"status":       string(entity.StatusArchived),
			"dismissed_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ListDismissedBefore(cutoff time.Time, limit int) ([]*entity.Notification, error) {
	var models []model.NotificationModel
	query := r.db.
		Where("dismissed_at IS NOT NULL AND dismissed_at < ?", cutoff).
		Order("dismissed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	notifications := make([]*entity.Notification, len(models))
	for i := range models {
		notifications[i] = ToNotificationEntity(&models[i])
	}
	return notifications, nil
}

func (r *notificationRepository) DeleteDismissedBefore(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("dismissed_at IS NOT NULL AND dismissed_at < ?", cutoff).
		Delete(&model.NotificationModel{})
	return result.RowsAffected, result.Error
}
