package persistent

import (
	"encoding/json"

	"pocketledger/services/alerts/internal/entity"
	"pocketledger/services/alerts/internal/model"

	"gorm.io/datatypes"
)

func ToNotificationEntity(m *model.NotificationModel) *entity.Notification {
	if m == nil {
		return nil
	}

	n := &entity.Notification{
		ID:          m.ID,
		TenantID:    m.TenantID,
		EventType:   m.EventType,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		ReferenceID: m.ReferenceID,
		DedupeKey:   m.DedupeKey,
		Severity:    entity.Severity(m.Severity),
		MessageKey:  m.MessageKey,
		CTALabelKey: m.CTALabelKey,
		CTATarget:   m.CTATarget,
		Status:      entity.Status(m.Status),
		CreatedAt:   m.CreatedAt,
		ReadAt:      m.ReadAt,
		DismissedAt: m.DismissedAt,
	}

	if len(m.Params) > 0 {
		var params map[string]interface{}
		if err := json.Unmarshal(m.Params, &params); err == nil {
			n.Params = params
		}
	}

	return n
}

func ToNotificationModel(e *entity.Notification) *model.NotificationModel {
	if e == nil {
		return nil
	}

	m := &model.NotificationModel{
		ID:          e.ID,
		TenantID:    e.TenantID,
		EventType:   e.EventType,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		ReferenceID: e.ReferenceID,
		DedupeKey:   e.DedupeKey,
		Severity:    string(e.Severity),
		MessageKey:  e.MessageKey,
		CTALabelKey: e.CTALabelKey,
		CTATarget:   e.CTATarget,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		ReadAt:      e.ReadAt,
		DismissedAt: e.DismissedAt,
	}

	if e.EntityType == "" {
		m.EntityType = entity.EntityTypeGeneric
	}

	if len(e.Params) > 0 {
		if raw, err := json.Marshal(e.Params); err == nil {
			m.Params = datatypes.JSON(raw)
		}
	}

	return m
}
