package usecase

import (
	"fmt"
	"time"

	"pocketledger/pkg/logger"
	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/repo/persistent"
)

// fakeNotificationRepo mimics the Postgres repository in memory, including
// the partial uniqueness constraint on (tenant_id, dedupe_key) over open
// rows. failOn lets tests inject a repository failure for one event type.
type fakeNotificationRepo struct {
	rows       []*entity.Notification
	nextID     int
	failOn     string
	failDelete error
}

func newFakeRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) FindOpenByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error) {
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.DedupeKey == dedupeKey && row.DismissedAt == nil {
			clone := *row
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) FindAnyByDedupeKey(tenantID, dedupeKey string) (*entity.Notification, error) {
	var newest *entity.Notification
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.DedupeKey == dedupeKey {
			if newest == nil || row.CreatedAt.After(newest.CreatedAt) {
				newest = row
			}
		}
	}
	if newest == nil {
		return nil, nil
	}
	clone := *newest
	return &clone, nil
}

func (r *fakeNotificationRepo) Insert(n *entity.Notification) error {
	if r.failOn != "" && n.EventType == r.failOn {
		return fmt.Errorf("injected repository failure")
	}
	for _, row := range r.rows {
		if row.TenantID == n.TenantID && row.DedupeKey == n.DedupeKey && row.DismissedAt == nil {
			return persistent.ErrDuplicateDedupeKey
		}
	}
	r.nextID++
	n.ID = fmt.Sprintf("n-%d", r.nextID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	clone := *n
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *fakeNotificationRepo) Update(tenantID, id string, fields persistent.NotificationUpdate) error {
	for _, row := range r.rows {
		if row.ID == id && row.TenantID == tenantID {
			row.MessageKey = fields.MessageKey
			row.Severity = fields.Severity
			if fields.Params != nil {
				row.Params = fields.Params
			}
			if fields.CTALabelKey != "" {
				row.CTALabelKey = fields.CTALabelKey
			}
			if fields.CTATarget != "" {
				row.CTATarget = fields.CTATarget
			}
			row.Status = entity.StatusUnread
			row.ReadAt = nil
			return nil
		}
	}
	return persistent.ErrNotFound
}

func (r *fakeNotificationRepo) ArchiveMatching(tenantID, eventType, referenceID string) (int64, error) {
	if r.failOn != "" && eventType == r.failOn {
		return 0, fmt.Errorf("injected repository failure")
	}
	now := time.Now().UTC()
	var count int64
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.EventType == eventType && row.ReferenceID == referenceID && row.DismissedAt == nil {
			dismissed := now
			row.DismissedAt = &dismissed
			row.Status = entity.StatusArchived
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) ListOpen(tenantID string) ([]*entity.Notification, error) {
	var open []*entity.Notification
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.DismissedAt == nil {
			clone := *row
			open = append(open, &clone)
		}
	}
	return open, nil
}

func (r *fakeNotificationRepo) MarkRead(tenantID, id string) error {
	for _, row := range r.rows {
		if row.ID == id && row.TenantID == tenantID && row.DismissedAt == nil {
			now := time.Now().UTC()
			row.Status = entity.StatusRead
			row.ReadAt = &now
			return nil
		}
	}
	return persistent.ErrNotFound
}

func (r *fakeNotificationRepo) Dismiss(tenantID, id string) error {
	for _, row := range r.rows {
		if row.ID == id && row.TenantID == tenantID && row.DismissedAt == nil {
			now := time.Now().UTC()
			row.Status = entity.StatusArchived
			row.DismissedAt = &now
			return nil
		}
	}
	return persistent.ErrNotFound
}

func (r *fakeNotificationRepo) ListDismissedBefore(cutoff time.Time, limit int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, row := range r.rows {
		if row.DismissedAt != nil && row.DismissedAt.Before(cutoff) {
			clone := *row
			out = append(out, &clone)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) DeleteDismissedBefore(cutoff time.Time) (int64, error) {
	if r.failDelete != nil {
		return 0, r.failDelete
	}
	var kept []*entity.Notification
	var deleted int64
	for _, row := range r.rows {
		if row.DismissedAt != nil && row.DismissedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return deleted, nil
}

// openRows returns the tenant's open rows straight from the fake's state.
func (r *fakeNotificationRepo) openRows(tenantID string) []*entity.Notification {
	open, _ := r.ListOpen(tenantID)
	return open
}

func testLogger() *logger.Logger {
	return logger.New()
}
