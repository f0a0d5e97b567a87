package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationModel is the persistence shape of an alert. The uniqueness of
// (tenant_id, dedupe_key) among open rows is a partial index created in the
// migrations; gorm tags cannot express the WHERE clause.
type NotificationModel struct {
	ID          string         `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    string         `gorm:"type:varchar(64);not null;index:idx_notifications_tenant_open,priority:1" json:"tenant_id"`
	EventType   string         `gorm:"type:varchar(64);not null;index" json:"event_type"`
	EntityType  string         `gorm:"type:varchar(64);not null;default:'generic'" json:"entity_type"`
	EntityID    string         `gorm:"type:varchar(128)" json:"entity_id"`
	ReferenceID string         `gorm:"type:varchar(128);index" json:"reference_id"`
	DedupeKey   string         `gorm:"type:varchar(255);not null;index" json:"dedupe_key"`
	Severity    string         `gorm:"type:varchar(16);not null;default:'info'" json:"severity"`
	MessageKey  string         `gorm:"type:varchar(255);not null" json:"message_key"`
	Params      datatypes.JSON `gorm:"type:jsonb" json:"params,omitempty"`
	CTALabelKey string         `gorm:"type:varchar(255)" json:"cta_label_key,omitempty"`
	CTATarget   string         `gorm:"type:varchar(255)" json:"cta_target,omitempty"`
	Status      string         `gorm:"type:varchar(16);not null;default:'unread'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	DismissedAt *time.Time     `gorm:"index:idx_notifications_tenant_open,priority:2" json:"dismissed_at,omitempty"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (n *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
